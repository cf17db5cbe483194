package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/minato/airwave/internal/content"
	"github.com/minato/airwave/internal/model"
)

// ContactServiceInterface はお問い合わせハンドラーが必要とするサービスインターフェース。
type ContactServiceInterface interface {
	SubmitContact(ctx context.Context, input content.ContactInput) (*model.ContactMessage, error)
	ListContacts(ctx context.Context) ([]*model.ContactMessage, error)
	DeleteContact(ctx context.Context, id string) error
}

// ContactRecorder はお問い合わせ受け付けのメトリクス記録インターフェース。
type ContactRecorder interface {
	RecordContactSubmitted()
}

// ContactHandler はお問い合わせのHTTPハンドラー。
type ContactHandler struct {
	service ContactServiceInterface
	metrics ContactRecorder // nilの場合は記録しない
}

// NewContactHandler はContactHandlerを生成する。
func NewContactHandler(service ContactServiceInterface, metrics ContactRecorder) *ContactHandler {
	return &ContactHandler{
		service: service,
		metrics: metrics,
	}
}

// contactRequest はお問い合わせ投稿リクエストのボディ。
type contactRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Body  string `json:"body"`
}

// contactResponse はお問い合わせのAPIレスポンス。モデレーター用一覧で使用する。
type contactResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Submit はお問い合わせを受け付ける。認証不要。
// POST /api/contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	msg, err := h.service.SubmitContact(r.Context(), content.ContactInput{
		Name:  req.Name,
		Email: req.Email,
		Body:  req.Body,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordContactSubmitted()
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id": msg.ID,
	})
}

// List はお問い合わせの一覧を作成日時降順で返す。モデレーター用。
// GET /api/contact
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.ListContacts(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]contactResponse, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, contactResponse{
			ID:        msg.ID,
			Name:      msg.Name,
			Email:     msg.Email,
			Body:      msg.Body,
			CreatedAt: msg.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Delete はお問い合わせを削除する。モデレーター用。
// DELETE /api/contact/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteContact(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
