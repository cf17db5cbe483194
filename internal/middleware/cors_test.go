package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	reached := false
	handler := NewCORSMiddleware("https://radio.example.com")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reached = true
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/news", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Error("後続ハンドラーに到達していない")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://radio.example.com" {
		t.Errorf("Allow-Origin = %q, want %q", got, "https://radio.example.com")
	}
	// Cookie送信と共存させるためワイルドカードは使わない
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want %q", got, "true")
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	handler := NewCORSMiddleware("https://radio.example.com")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("プリフライトで後続ハンドラーが呼ばれた")
		}))

	req := httptest.NewRequest(http.MethodOptions, "/api/news", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}
