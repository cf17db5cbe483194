package handler

import (
	"net/http"
	"time"

	"github.com/minato/airwave/internal/model"
)

// NowPlayingProvider は現在の再生状況を提供するインターフェース。
// stream.Pollerの抽象化。
type NowPlayingProvider interface {
	Current() model.NowPlaying
}

// NowPlayingHandler はライブ配信の再生中情報のHTTPハンドラー。
type NowPlayingHandler struct {
	provider NowPlayingProvider
}

// NewNowPlayingHandler はNowPlayingHandlerを生成する。
func NewNowPlayingHandler(provider NowPlayingProvider) *NowPlayingHandler {
	return &NowPlayingHandler{provider: provider}
}

// nowPlayingResponse は再生中情報のAPIレスポンス。
type nowPlayingResponse struct {
	Title     string    `json:"title"`
	Listeners int       `json:"listeners"`
	Live      bool      `json:"live"`
	CheckedAt time.Time `json:"checked_at"`
}

// Get は現在の再生状況を返す。キャッシュされたスナップショットを返すため、
// 配信サーバーへの問い合わせは発生しない。
// GET /api/nowplaying
func (h *NowPlayingHandler) Get(w http.ResponseWriter, r *http.Request) {
	np := h.provider.Current()
	writeJSON(w, http.StatusOK, nowPlayingResponse{
		Title:     np.Title,
		Listeners: np.Listeners,
		Live:      np.Live,
		CheckedAt: np.CheckedAt,
	})
}
