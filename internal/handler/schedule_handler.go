package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/minato/airwave/internal/content"
	"github.com/minato/airwave/internal/model"
)

// ScheduleServiceInterface は番組表ハンドラーが必要とするサービスインターフェース。
type ScheduleServiceInterface interface {
	ListSchedule(ctx context.Context) ([]*model.ScheduleSlot, error)
	CreateScheduleSlot(ctx context.Context, input content.ScheduleInput) (*model.ScheduleSlot, error)
	UpdateScheduleSlot(ctx context.Context, id string, input content.ScheduleInput) (*model.ScheduleSlot, error)
	DeleteScheduleSlot(ctx context.Context, id string) error
}

// ScheduleHandler は週間番組表のHTTPハンドラー。
type ScheduleHandler struct {
	service ScheduleServiceInterface
}

// NewScheduleHandler はScheduleHandlerを生成する。
func NewScheduleHandler(service ScheduleServiceInterface) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// scheduleSlotRequest は番組枠作成・更新リクエストのボディ。
type scheduleSlotRequest struct {
	Weekday  int    `json:"weekday"`
	StartMin int    `json:"start_min"`
	EndMin   int    `json:"end_min"`
	ShowName string `json:"show_name"`
	Host     string `json:"host"`
}

// scheduleSlotResponse は番組枠のAPIレスポンス。
type scheduleSlotResponse struct {
	ID       string `json:"id"`
	Weekday  int    `json:"weekday"`
	StartMin int    `json:"start_min"`
	EndMin   int    `json:"end_min"`
	ShowName string `json:"show_name"`
	Host     string `json:"host"`
}

// List は番組表の全枠を曜日・開始時刻昇順で返す。
// GET /api/schedule
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	slots, err := h.service.ListSchedule(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]scheduleSlotResponse, 0, len(slots))
	for _, slot := range slots {
		resp = append(resp, toScheduleSlotResponse(slot))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create は番組枠を作成する。モデレーター用。
// POST /api/schedule
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req scheduleSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	slot, err := h.service.CreateScheduleSlot(r.Context(), toScheduleInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleSlotResponse(slot))
}

// Update は番組枠を更新する。モデレーター用。
// PUT /api/schedule/{id}
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req scheduleSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	slot, err := h.service.UpdateScheduleSlot(r.Context(), chi.URLParam(r, "id"), toScheduleInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleSlotResponse(slot))
}

// Delete は番組枠を削除する。モデレーター用。
// DELETE /api/schedule/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteScheduleSlot(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toScheduleInput(req scheduleSlotRequest) content.ScheduleInput {
	return content.ScheduleInput{
		Weekday:  req.Weekday,
		StartMin: req.StartMin,
		EndMin:   req.EndMin,
		ShowName: req.ShowName,
		Host:     req.Host,
	}
}

func toScheduleSlotResponse(slot *model.ScheduleSlot) scheduleSlotResponse {
	return scheduleSlotResponse{
		ID:       slot.ID,
		Weekday:  slot.Weekday,
		StartMin: slot.StartMin,
		EndMin:   slot.EndMin,
		ShowName: slot.ShowName,
		Host:     slot.Host,
	}
}
