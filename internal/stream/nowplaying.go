// Package stream はライブ配信の再生中情報（now playing）を管理する。
// Icecast互換のステータスエンドポイントを定期的にポーリングし、
// 最新のスナップショットをメモリに保持する。
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/minato/airwave/internal/model"
)

// maxStatusResponseSize はステータスレスポンスの最大読み取りサイズ。
// ステータスJSONは高々数KBであり、異常に大きいレスポンスは読み捨てる。
const maxStatusResponseSize = 256 * 1024

// PollRecorder はポーリング結果のメトリクス記録インターフェース。
type PollRecorder interface {
	RecordStreamPoll(status string, duration time.Duration)
}

// PollerConfig はPollerの設定。
type PollerConfig struct {
	StatusURL    string        // Icecast互換ステータスエンドポイントのURL
	PollInterval time.Duration // ポーリング間隔
}

// Poller は配信ステータスを定期的に取得し、最新のスナップショットを保持する。
// 取得に失敗した場合は直前のスナップショットを保持しつつ、
// Liveフラグをfalseに倒す。APIリクエストごとに配信サーバーへ
// 問い合わせることはしない。
type Poller struct {
	config  PollerConfig
	client  *http.Client
	metrics PollRecorder // nilの場合は記録しない

	mu      sync.RWMutex
	current model.NowPlaying
}

// NewPoller はPollerを生成する。
// clientにはSSRF防止機能付きのHTTPクライアントを渡すこと。
func NewPoller(config PollerConfig, client *http.Client, metrics PollRecorder) *Poller {
	return &Poller{
		config:  config,
		client:  client,
		metrics: metrics,
	}
}

// Current は最新のnow playingスナップショットを返す。
// 一度もポーリングに成功していない場合はゼロ値
// （Live=false, CheckedAtゼロ）を返す。
func (p *Poller) Current() model.NowPlaying {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Start はポーリングループを開始する。起動直後に1回実行し、
// 以降はPollIntervalごとに実行する。コンテキストの
// キャンセルで停止する。ブロックするため、goroutineで呼び出すこと。
func (p *Poller) Start(ctx context.Context) {
	slog.Info("stream poller started",
		slog.String("status_url", p.config.StatusURL),
		slog.Duration("interval", p.config.PollInterval),
	)

	p.pollOnce(ctx)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stream poller stopped")
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce はステータスを1回取得してスナップショットを更新する。
func (p *Poller) pollOnce(ctx context.Context) {
	start := time.Now()

	np, err := p.fetchStatus(ctx)
	duration := time.Since(start)

	if err != nil {
		slog.Warn("failed to fetch stream status",
			slog.String("error", err.Error()),
		)
		if p.metrics != nil {
			p.metrics.RecordStreamPoll("error", duration)
		}

		// 直前のタイトル等は保持しつつ、配信中フラグのみ倒す
		p.mu.Lock()
		p.current.Live = false
		p.current.CheckedAt = time.Now()
		p.mu.Unlock()
		return
	}

	if p.metrics != nil {
		p.metrics.RecordStreamPoll("ok", duration)
	}

	p.mu.Lock()
	p.current = np
	p.mu.Unlock()
}

// icecastStatus はIcecastのステータスJSONの必要部分。
// sourceはマウントポイントが1つなら単一オブジェクト、
// 複数なら配列で返されるため、RawMessageで受けて判別する。
type icecastStatus struct {
	Icestats struct {
		Source json.RawMessage `json:"source"`
	} `json:"icestats"`
}

// icecastSource はIcecastのソース（マウントポイント）情報。
type icecastSource struct {
	Title     string `json:"title"`
	Listeners int    `json:"listeners"`
}

// fetchStatus はステータスエンドポイントからnow playing情報を取得する。
func (p *Poller) fetchStatus(ctx context.Context) (model.NowPlaying, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.StatusURL, nil)
	if err != nil {
		return model.NowPlaying{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return model.NowPlaying{}, fmt.Errorf("failed to fetch stream status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.NowPlaying{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusResponseSize))
	if err != nil {
		return model.NowPlaying{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var status icecastStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return model.NowPlaying{}, fmt.Errorf("failed to parse stream status: %w", err)
	}

	source, ok, err := primarySource(status.Icestats.Source)
	if err != nil {
		return model.NowPlaying{}, err
	}
	if !ok {
		// sourceが無い = 配信停止中。エラーではない。
		return model.NowPlaying{
			Live:      false,
			CheckedAt: time.Now(),
		}, nil
	}

	return model.NowPlaying{
		Title:     source.Title,
		Listeners: source.Listeners,
		Live:      true,
		CheckedAt: time.Now(),
	}, nil
}

// primarySource はsourceフィールドから先頭のマウントポイントを取り出す。
// 単一オブジェクト・配列の両形式に対応する。
func primarySource(raw json.RawMessage) (icecastSource, bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return icecastSource{}, false, nil
	}

	var single icecastSource
	if err := json.Unmarshal(raw, &single); err == nil {
		return single, true, nil
	}

	var multiple []icecastSource
	if err := json.Unmarshal(raw, &multiple); err != nil {
		return icecastSource{}, false, fmt.Errorf("failed to parse source field: %w", err)
	}
	if len(multiple) == 0 {
		return icecastSource{}, false, nil
	}
	return multiple[0], true, nil
}
