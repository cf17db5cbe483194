package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/minato/airwave/internal/content"
	"github.com/minato/airwave/internal/model"
)

// ChartServiceInterface はチャートハンドラーが必要とするサービスインターフェース。
type ChartServiceInterface interface {
	LatestChart(ctx context.Context) (string, []*model.ChartEntry, error)
	ChartByWeek(ctx context.Context, week string) ([]*model.ChartEntry, error)
	ReplaceChart(ctx context.Context, week string, inputs []content.ChartEntryInput) ([]*model.ChartEntry, error)
}

// ChartHandler は週間チャートのHTTPハンドラー。
type ChartHandler struct {
	service ChartServiceInterface
}

// NewChartHandler はChartHandlerを生成する。
func NewChartHandler(service ChartServiceInterface) *ChartHandler {
	return &ChartHandler{service: service}
}

// chartEntryRequest はチャートエントリのリクエストボディ要素。
type chartEntryRequest struct {
	Rank   int    `json:"rank"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// chartEntryResponse はチャートエントリのAPIレスポンス。
type chartEntryResponse struct {
	Rank   int    `json:"rank"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

// chartResponse は週単位のチャートのAPIレスポンス。
type chartResponse struct {
	Week    string               `json:"week"`
	Entries []chartEntryResponse `json:"entries"`
}

// Latest は最新週のチャートを返す。
// GET /api/charts/latest
func (h *ChartHandler) Latest(w http.ResponseWriter, r *http.Request) {
	week, entries, err := h.service.LatestChart(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChartResponse(week, entries))
}

// ByWeek は指定週のチャートを返す。
// GET /api/charts/{week}
func (h *ChartHandler) ByWeek(w http.ResponseWriter, r *http.Request) {
	week := chi.URLParam(r, "week")

	entries, err := h.service.ChartByWeek(r.Context(), week)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChartResponse(week, entries))
}

// Replace は指定週のチャートを全置換する。モデレーター用。
// PUT /api/charts/{week}
func (h *ChartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	week := chi.URLParam(r, "week")

	var req []chartEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	inputs := make([]content.ChartEntryInput, 0, len(req))
	for _, e := range req {
		inputs = append(inputs, content.ChartEntryInput{
			Rank:   e.Rank,
			Artist: e.Artist,
			Title:  e.Title,
		})
	}

	entries, err := h.service.ReplaceChart(r.Context(), week, inputs)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChartResponse(week, entries))
}

func toChartResponse(week string, entries []*model.ChartEntry) chartResponse {
	resp := chartResponse{
		Week:    week,
		Entries: make([]chartEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, chartEntryResponse{
			Rank:   e.Rank,
			Artist: e.Artist,
			Title:  e.Title,
		})
	}
	return resp
}
