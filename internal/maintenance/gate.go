// Package maintenance はメンテナンスモードのゲートを提供する。
// 設定テーブルのmaintenance_mode行を読み取り、ルートガードへ
// 真偽値として公開する。
package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/minato/airwave/internal/model"
	"github.com/minato/airwave/internal/repository"
)

// Gate はメンテナンスフラグの読み取りと短期キャッシュを行う。
// フラグの読み取りに失敗した場合はメンテナンス無効として扱う
// （フェイルオープン）。このゲートはUIレベルの案内であり、
// セキュリティ境界ではないため、可用性を優先する。
type Gate struct {
	settingsRepo repository.SettingsRepository
	cacheTTL     time.Duration

	mu        sync.Mutex
	cached    bool
	fetchedAt time.Time
}

// NewGate はGateを生成する。
// cacheTTLが0以下の場合はキャッシュせず毎回読み取る。
func NewGate(settingsRepo repository.SettingsRepository, cacheTTL time.Duration) *Gate {
	return &Gate{
		settingsRepo: settingsRepo,
		cacheTTL:     cacheTTL,
	}
}

// IsActive は現在メンテナンスモードが有効かどうかを返す。
// TTL内はキャッシュ値を返す。読み取り失敗時はfalseを返し、
// エラーをログに記録する。
func (g *Gate) IsActive(ctx context.Context) bool {
	g.mu.Lock()
	if g.cacheTTL > 0 && !g.fetchedAt.IsZero() && time.Since(g.fetchedAt) < g.cacheTTL {
		cached := g.cached
		g.mu.Unlock()
		return cached
	}
	g.mu.Unlock()

	return g.Refresh(ctx)
}

// Refresh はキャッシュを無視して設定行を読み直し、最新値を返す。
// 管理画面からのメンテナンス切り替え直後に使用する。
func (g *Gate) Refresh(ctx context.Context) bool {
	setting, err := g.settingsRepo.Get(ctx, model.SettingKeyMaintenanceMode)
	if err != nil {
		slog.Error("failed to read maintenance flag, treating as inactive",
			slog.String("error", err.Error()),
		)
		return false
	}

	active := setting != nil && setting.Value == "true"

	g.mu.Lock()
	g.cached = active
	g.fetchedAt = time.Now()
	g.mu.Unlock()

	return active
}
