package middleware

import "net/http"

// SecurityHeadersConfig はセキュリティヘッダーの設定。
type SecurityHeadersConfig struct {
	// StreamOrigin はライブ配信ストリームのオリジン。
	// CSPのmedia-srcに追加され、ブラウザでの再生を許可する。
	// 空の場合はmedia-srcを'self'のみとする。
	StreamOrigin string
}

// NewSecurityHeadersMiddleware はセキュリティ関連のHTTPレスポンスヘッダーを付与するミドルウェアを返す。
func NewSecurityHeadersMiddleware(config SecurityHeadersConfig) func(next http.Handler) http.Handler {
	mediaSrc := "'self'"
	if config.StreamOrigin != "" {
		mediaSrc += " " + config.StreamOrigin
	}
	csp := "default-src 'self'; img-src 'self' data: https:; media-src " + mediaSrc + "; frame-ancestors 'none'"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			w.Header().Set("Content-Security-Policy", csp)
			next.ServeHTTP(w, r)
		})
	}
}
