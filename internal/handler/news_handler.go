package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/minato/airwave/internal/content"
	"github.com/minato/airwave/internal/middleware"
	"github.com/minato/airwave/internal/model"
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	ListPublishedNews(ctx context.Context) ([]*model.NewsPost, error)
	ListAllNews(ctx context.Context) ([]*model.NewsPost, error)
	GetPublishedNews(ctx context.Context, id string) (*model.NewsPost, error)
	CreateNews(ctx context.Context, authorID string, input content.NewsInput) (*model.NewsPost, error)
	UpdateNews(ctx context.Context, id string, input content.NewsInput) (*model.NewsPost, error)
	DeleteNews(ctx context.Context, id string) error
}

// NewsHandler はニュース記事のHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface) *NewsHandler {
	return &NewsHandler{service: service}
}

// newsRequest は記事作成・更新リクエストのボディ。
type newsRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

// newsResponse は記事のAPIレスポンス。
type newsResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListPublished は公開済み記事の一覧を返す。
// GET /api/news
func (h *NewsHandler) ListPublished(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPublishedNews(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsResponses(posts))
}

// ListAll は下書きを含む全記事の一覧を返す。モデレーター用。
// GET /api/news/all
func (h *NewsHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListAllNews(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsResponses(posts))
}

// Get は公開済み記事の詳細を返す。未公開記事は404として扱う。
// GET /api/news/{id}
func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.service.GetPublishedNews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsResponse(post))
}

// Create は記事を作成する。モデレーター用。
// POST /api/news
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	authorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
			Code:     "UNAUTHORIZED",
			Message:  "ログインが必要です。",
			Category: "auth",
			Action:   "ログインしてください。",
		})
		return
	}

	var req newsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	post, err := h.service.CreateNews(r.Context(), authorID, content.NewsInput{
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNewsResponse(post))
}

// Update は記事を更新する。モデレーター用。
// PUT /api/news/{id}
func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req newsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	post, err := h.service.UpdateNews(r.Context(), chi.URLParam(r, "id"), content.NewsInput{
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toNewsResponse(post))
}

// Delete は記事を削除する。モデレーター用。
// DELETE /api/news/{id}
func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteNews(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toNewsResponse(post *model.NewsPost) newsResponse {
	return newsResponse{
		ID:        post.ID,
		Title:     post.Title,
		Body:      post.Body,
		Published: post.Published,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}

func toNewsResponses(posts []*model.NewsPost) []newsResponse {
	resp := make([]newsResponse, 0, len(posts))
	for _, post := range posts {
		resp = append(resp, toNewsResponse(post))
	}
	return resp
}
