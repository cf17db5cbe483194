package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/minato/airwave/internal/content"
	"github.com/minato/airwave/internal/model"
)

// mockChartService はChartServiceInterfaceのモック実装。
type mockChartService struct {
	LatestChartFunc  func(ctx context.Context) (string, []*model.ChartEntry, error)
	ChartByWeekFunc  func(ctx context.Context, week string) ([]*model.ChartEntry, error)
	ReplaceChartFunc func(ctx context.Context, week string, inputs []content.ChartEntryInput) ([]*model.ChartEntry, error)
}

func (m *mockChartService) LatestChart(ctx context.Context) (string, []*model.ChartEntry, error) {
	return m.LatestChartFunc(ctx)
}

func (m *mockChartService) ChartByWeek(ctx context.Context, week string) ([]*model.ChartEntry, error) {
	return m.ChartByWeekFunc(ctx, week)
}

func (m *mockChartService) ReplaceChart(ctx context.Context, week string, inputs []content.ChartEntryInput) ([]*model.ChartEntry, error) {
	return m.ReplaceChartFunc(ctx, week, inputs)
}

func chartRouter(h *ChartHandler) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/charts/latest", h.Latest)
	r.Get("/api/charts/{week}", h.ByWeek)
	r.Put("/api/charts/{week}", h.Replace)
	return r
}

func TestChartHandler_Latest(t *testing.T) {
	service := &mockChartService{
		LatestChartFunc: func(ctx context.Context) (string, []*model.ChartEntry, error) {
			return "2026-W35", []*model.ChartEntry{
				{Rank: 1, Artist: "波乗りバンド", Title: "真夏のウェーブ"},
				{Rank: 2, Artist: "湊シティポップ", Title: "港の灯り"},
			}, nil
		},
	}
	h := NewChartHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/charts/latest", nil)
	rec := httptest.NewRecorder()
	chartRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp chartResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Week != "2026-W35" {
		t.Errorf("Week = %q, want %q", resp.Week, "2026-W35")
	}
	if len(resp.Entries) != 2 || resp.Entries[0].Rank != 1 {
		t.Errorf("Entries = %+v", resp.Entries)
	}
}

func TestChartHandler_LatestEmpty(t *testing.T) {
	// チャートが一度も登録されていなくてもエラーにはならない
	service := &mockChartService{
		LatestChartFunc: func(ctx context.Context) (string, []*model.ChartEntry, error) {
			return "", nil, nil
		},
	}
	h := NewChartHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/charts/latest", nil)
	rec := httptest.NewRecorder()
	chartRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp chartResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp.Entries == nil || len(resp.Entries) != 0 {
		t.Errorf("Entries = %v, want []", resp.Entries)
	}
}

func TestChartHandler_ByWeek(t *testing.T) {
	service := &mockChartService{
		ChartByWeekFunc: func(ctx context.Context, week string) ([]*model.ChartEntry, error) {
			if week != "2026-W34" {
				t.Errorf("week = %q, want %q", week, "2026-W34")
			}
			return []*model.ChartEntry{{Rank: 1, Artist: "a", Title: "t"}}, nil
		},
	}
	h := NewChartHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/charts/2026-W34", nil)
	rec := httptest.NewRecorder()
	chartRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestChartHandler_ByWeekInvalidFormat(t *testing.T) {
	service := &mockChartService{
		ChartByWeekFunc: func(ctx context.Context, week string) ([]*model.ChartEntry, error) {
			return nil, model.NewInvalidContentError("週の形式が不正です。")
		},
	}
	h := NewChartHandler(service)

	req := httptest.NewRequest(http.MethodGet, "/api/charts/2026-W99", nil)
	rec := httptest.NewRecorder()
	chartRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestChartHandler_Replace(t *testing.T) {
	var gotWeek string
	var gotInputs []content.ChartEntryInput
	service := &mockChartService{
		ReplaceChartFunc: func(ctx context.Context, week string, inputs []content.ChartEntryInput) ([]*model.ChartEntry, error) {
			gotWeek = week
			gotInputs = inputs
			entries := make([]*model.ChartEntry, 0, len(inputs))
			for _, in := range inputs {
				entries = append(entries, &model.ChartEntry{Week: week, Rank: in.Rank, Artist: in.Artist, Title: in.Title})
			}
			return entries, nil
		},
	}
	h := NewChartHandler(service)

	body := `[{"rank":1,"artist":"波乗りバンド","title":"真夏のウェーブ"},{"rank":2,"artist":"湊シティポップ","title":"港の灯り"}]`
	req := httptest.NewRequest(http.MethodPut, "/api/charts/2026-W35", strings.NewReader(body))
	rec := httptest.NewRecorder()
	chartRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotWeek != "2026-W35" {
		t.Errorf("week = %q, want %q", gotWeek, "2026-W35")
	}
	if len(gotInputs) != 2 || gotInputs[1].Artist != "湊シティポップ" {
		t.Errorf("inputs = %+v", gotInputs)
	}

	var resp chartResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Errorf("Entries = %+v", resp.Entries)
	}
}

func TestChartHandler_ReplaceInvalidBody(t *testing.T) {
	h := NewChartHandler(&mockChartService{})

	req := httptest.NewRequest(http.MethodPut, "/api/charts/2026-W35", strings.NewReader(`{"rank":1}`))
	rec := httptest.NewRecorder()
	chartRouter(h).ServeHTTP(rec, req)

	// 配列以外のボディは400
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
