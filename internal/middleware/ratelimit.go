package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig はレート制限の設定を保持する。
type RateLimiterConfig struct {
	GeneralRate     rate.Limit    // 認証済みAPI全般のレート（req/sec）
	GeneralBurst    int           // 認証済みAPI全般のバーストサイズ
	LoginRate       rate.Limit    // ログイン試行のレート（req/sec、IPごと）
	LoginBurst      int           // ログイン試行のバーストサイズ
	ContactRate     rate.Limit    // お問い合わせ投稿のレート（req/sec、IPごと）
	ContactBurst    int           // お問い合わせ投稿のバーストサイズ
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRateLimiterConfig はデフォルトのレート制限設定を返す。
// API全般 120 req/min/user、ログイン試行 10 req/min/IP、
// お問い合わせ 5 req/min/IP。
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(120.0 / 60.0),
		GeneralBurst:    120,
		LoginRate:       rate.Limit(10.0 / 60.0),
		LoginBurst:      10,
		ContactRate:     rate.Limit(5.0 / 60.0),
		ContactBurst:    5,
		CleanupInterval: 5 * time.Minute,
	}
}

// keyedLimiter はキーごとのレートリミッターとアクセス時刻を保持する。
type keyedLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// limiterBucket は1種類のレート制限のキー別リミッター群を管理する。
type limiterBucket struct {
	mu       sync.Mutex
	limiters map[string]*keyedLimiter
	rateVal  rate.Limit
	burst    int
}

func newLimiterBucket(r rate.Limit, burst int) *limiterBucket {
	return &limiterBucket{
		limiters: make(map[string]*keyedLimiter),
		rateVal:  r,
		burst:    burst,
	}
}

// getOrCreate はキーのリミッターを取得または作成する。
func (b *limiterBucket) getOrCreate(key string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	if kl, exists := b.limiters[key]; exists {
		kl.lastAccess = time.Now()
		return kl.limiter
	}

	limiter := rate.NewLimiter(b.rateVal, b.burst)
	b.limiters[key] = &keyedLimiter{
		limiter:    limiter,
		lastAccess: time.Now(),
	}
	return limiter
}

// cleanup は最終アクセス時刻がttlを超えたエントリを削除する。
func (b *limiterBucket) cleanup(ttl time.Duration) {
	now := time.Now()
	b.mu.Lock()
	for key, kl := range b.limiters {
		if now.Sub(kl.lastAccess) > ttl {
			delete(b.limiters, key)
		}
	}
	b.mu.Unlock()
}

// count は現在管理されているエントリ数を返す。テスト用。
func (b *limiterBucket) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.limiters)
}

// RateLimiter はキーごとのレート制限を管理する。
// 認証済みAPI全般（ユーザーIDごと）、ログイン試行（IPごと）、
// お問い合わせ投稿（IPごと）の3種類を提供する。
type RateLimiter struct {
	config  RateLimiterConfig
	general *limiterBucket
	login   *limiterBucket
	contact *limiterBucket
	stopCh  chan struct{}
}

// NewRateLimiter は新しいRateLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		config:  config,
		general: newLimiterBucket(config.GeneralRate, config.GeneralBurst),
		login:   newLimiterBucket(config.LoginRate, config.LoginBurst),
		contact: newLimiterBucket(config.ContactRate, config.ContactBurst),
		stopCh:  make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// GeneralMiddleware は認証済みAPI全般のレート制限ミドルウェアを返す。
// リクエストコンテキストにユーザーIDが含まれている必要がある
// （SessionMiddlewareの後に配置）。
func (rl *RateLimiter) GeneralMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if !rl.general.getOrCreate(userID).Allow() {
				writeRateLimitResponse(w, rl.config.GeneralRate)
				slog.Warn("rate limit exceeded",
					slog.String("user_id", userID),
					slog.String("limit_type", "general"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoginMiddleware はログイン・サインアップ試行のレート制限ミドルウェアを返す。
// 未認証リクエストを対象とするため、クライアントIPをキーとする。
func (rl *RateLimiter) LoginMiddleware() func(next http.Handler) http.Handler {
	return rl.ipKeyedMiddleware(rl.login, rl.config.LoginRate, "login")
}

// ContactMiddleware はお問い合わせ投稿のレート制限ミドルウェアを返す。
// クライアントIPをキーとする。
func (rl *RateLimiter) ContactMiddleware() func(next http.Handler) http.Handler {
	return rl.ipKeyedMiddleware(rl.contact, rl.config.ContactRate, "contact")
}

// ipKeyedMiddleware はクライアントIPをキーとするレート制限ミドルウェアを返す。
func (rl *RateLimiter) ipKeyedMiddleware(bucket *limiterBucket, limit rate.Limit, limitType string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			if !bucket.getOrCreate(ip).Allow() {
				writeRateLimitResponse(w, limit)
				slog.Warn("rate limit exceeded",
					slog.String("ip", ip),
					slog.String("limit_type", limitType),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ttl := rl.config.CleanupInterval * 2
			rl.general.cleanup(ttl)
			rl.login.cleanup(ttl)
			rl.contact.cleanup(ttl)
		case <-rl.stopCh:
			return
		}
	}
}

// clientIP はリクエストからクライアントIPを取得する。
// リバースプロキシ背後を想定し、X-Forwarded-Forの先頭を優先する。
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeRateLimitResponse は429 Too Many Requestsレスポンスを書き込む。
// Retry-Afterヘッダーにはトークンが補充されるまでの推定秒数を設定する。
func writeRateLimitResponse(w http.ResponseWriter, r rate.Limit) {
	retryAfterSec := int(math.Ceil(1.0 / float64(r)))
	if retryAfterSec < 1 {
		retryAfterSec = 1
	}

	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSec))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)

	json.NewEncoder(w).Encode(map[string]string{
		"code":    "rate_limit_exceeded",
		"message": "リクエスト数が上限に達しました。",
		"action":  "しばらく待ってから再度お試しください。",
	})
}
