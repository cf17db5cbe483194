package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/minato/airwave/internal/model"
	"github.com/minato/airwave/internal/podcast"
)

// PodcastServiceInterface はポッドキャストハンドラーが必要とするサービスインターフェース。
type PodcastServiceInterface interface {
	List(ctx context.Context) ([]*model.Podcast, error)
	Get(ctx context.Context, id string) (*model.Podcast, error)
	Create(ctx context.Context, input podcast.CreateInput) (*model.Podcast, error)
	Update(ctx context.Context, id string, input podcast.CreateInput) (*model.Podcast, error)
	Delete(ctx context.Context, id string) error
	ListEpisodes(ctx context.Context, podcastID string) ([]*model.PodcastEpisode, error)
	Import(ctx context.Context, podcastID string) (int, error)
}

// ImportRecorder はインポート結果のメトリクス記録インターフェース。
type ImportRecorder interface {
	RecordEpisodesImported(count int)
}

// PodcastHandler はポッドキャスト管理のHTTPハンドラー。
type PodcastHandler struct {
	service PodcastServiceInterface
	metrics ImportRecorder // nilの場合は記録しない
}

// NewPodcastHandler はPodcastHandlerを生成する。
func NewPodcastHandler(service PodcastServiceInterface, metrics ImportRecorder) *PodcastHandler {
	return &PodcastHandler{
		service: service,
		metrics: metrics,
	}
}

// podcastRequest はポッドキャスト作成・更新リクエストのボディ。
type podcastRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	FeedURL     string `json:"feed_url"`
}

// podcastResponse はポッドキャスト情報のAPIレスポンス。
type podcastResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoverURL    string    `json:"cover_url"`
	FeedURL     string    `json:"feed_url,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// episodeResponse はエピソード情報のAPIレスポンス。
type episodeResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AudioURL    string    `json:"audio_url"`
	Duration    int       `json:"duration"`
	PublishedAt time.Time `json:"published_at"`
}

// List はポッドキャスト一覧を返す。
// GET /api/podcasts
func (h *PodcastHandler) List(w http.ResponseWriter, r *http.Request) {
	podcasts, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]podcastResponse, 0, len(podcasts))
	for _, p := range podcasts {
		resp = append(resp, toPodcastResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get はポッドキャスト詳細を返す。
// GET /api/podcasts/{id}
func (h *PodcastHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPodcastResponse(p))
}

// ListEpisodes はエピソード一覧を公開日時降順で返す。
// GET /api/podcasts/{id}/episodes
func (h *PodcastHandler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	episodes, err := h.service.ListEpisodes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]episodeResponse, 0, len(episodes))
	for _, ep := range episodes {
		resp = append(resp, episodeResponse{
			ID:          ep.ID,
			Title:       ep.Title,
			Description: ep.Description,
			AudioURL:    ep.AudioURL,
			Duration:    ep.Duration,
			PublishedAt: ep.PublishedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create はポッドキャストを作成する。モデレーター用。
// POST /api/podcasts
func (h *PodcastHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req podcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	p, err := h.service.Create(r.Context(), podcast.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		FeedURL:     req.FeedURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPodcastResponse(p))
}

// Update はポッドキャストを更新する。モデレーター用。
// PUT /api/podcasts/{id}
func (h *PodcastHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req podcastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	p, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), podcast.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		CoverURL:    req.CoverURL,
		FeedURL:     req.FeedURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPodcastResponse(p))
}

// Delete はポッドキャストを削除する。モデレーター用。
// DELETE /api/podcasts/{id}
func (h *PodcastHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import は外部RSSフィードからエピソードを取り込む。モデレーター用。
// POST /api/podcasts/{id}/import
func (h *PodcastHandler) Import(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.Import(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordEpisodesImported(count)
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"imported": count,
	})
}

func toPodcastResponse(p *model.Podcast) podcastResponse {
	return podcastResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		CoverURL:    p.CoverURL,
		FeedURL:     p.FeedURL,
		UpdatedAt:   p.UpdatedAt,
	}
}
