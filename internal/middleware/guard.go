package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/minato/airwave/internal/guard"
	"github.com/minato/airwave/internal/model"
	"github.com/minato/airwave/internal/session"
)

// RoleResolver はユーザーIDからロール集合を解決するインターフェース。
// roles.Resolverの抽象化。
type RoleResolver interface {
	ResolveRoles(ctx context.Context, userID string) (model.RoleSet, error)
}

// MaintenanceGate はメンテナンスフラグの読み取りインターフェース。
type MaintenanceGate interface {
	IsActive(ctx context.Context) bool
}

// GuardRecorder はガード判断のメトリクス記録インターフェース。
type GuardRecorder interface {
	RecordGuardDecision(decision string)
}

// GuardDeps はガードミドルウェアの依存関係。
type GuardDeps struct {
	Resolver RoleResolver
	Gate     MaintenanceGate
	Metrics  GuardRecorder // nilの場合は記録しない
}

// NewGuardMiddleware は要求ロールに基づくルートガードミドルウェアを返す。
// SessionMiddlewareの後に配置すること。リクエストごとにロールを解決し、
// guard.Decideの判断をHTTPレスポンスへ写像する:
//
//	Render              → ロール集合をコンテキストに注入して続行
//	RedirectMaintenance → 503 + MAINTENANCE（Location: /maintenance）
//	RedirectDashboard   → 403 + FORBIDDEN（Location: /user-dashboard）
//	RedirectLogin       → 401（Location: /login）
//	Loading             → 503 + ROLES_UNAVAILABLE（ロール解決失敗時。再試行を促す）
//
// ロール解決の失敗は否定的な認可判断にせず、判断保留として扱う。
func NewGuardMiddleware(deps GuardDeps, requiredRoles model.RoleSet) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// リクエストごとに最新のロール集合でスナップショットを構築する。
			snap := session.Snapshot{
				State:   session.StateAuthenticated,
				Session: &model.Session{UserID: userID},
			}

			roleSet, resolveErr := deps.Resolver.ResolveRoles(r.Context(), userID)
			if resolveErr != nil {
				slog.Error("role resolution failed in guard",
					slog.String("user_id", userID),
					slog.String("error", resolveErr.Error()),
				)
				snap.Roles = model.NewRoleSet()
				snap.RolesResolved = false
			} else {
				snap.Roles = roleSet
				snap.RolesResolved = true
			}

			decision := guard.Decide(snap, requiredRoles, deps.Gate.IsActive(r.Context()))
			if deps.Metrics != nil {
				deps.Metrics.RecordGuardDecision(decision.String())
			}

			switch decision {
			case guard.DecisionRender:
				ctx := ContextWithRoleSet(r.Context(), snap.Roles)
				next.ServeHTTP(w, r.WithContext(ctx))

			case guard.DecisionRedirectMaintenance:
				writeGuardResponse(w, http.StatusServiceUnavailable, "/maintenance", &model.APIError{
					Code:     "MAINTENANCE",
					Message:  "現在メンテナンス中です。",
					Category: "system",
					Action:   "メンテナンス終了までお待ちください。",
				})

			case guard.DecisionRedirectDashboard:
				writeGuardResponse(w, http.StatusForbidden, "/user-dashboard", &model.APIError{
					Code:     "FORBIDDEN",
					Message:  "このページを表示する権限がありません。",
					Category: "auth",
					Action:   "ダッシュボードへ戻ってください。",
				})

			case guard.DecisionRedirectLogin:
				writeGuardResponse(w, http.StatusUnauthorized, "/login", &model.APIError{
					Code:     "UNAUTHORIZED",
					Message:  "ログインが必要です。",
					Category: "auth",
					Action:   "ログインしてください。",
				})

			default: // guard.DecisionLoading
				w.Header().Set("Retry-After", "1")
				WriteErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
					Code:     "ROLES_UNAVAILABLE",
					Message:  "権限情報を取得できませんでした。",
					Category: "system",
					Action:   "しばらく待ってから再度お試しください。",
				})
			}
		})
	}
}

// writeGuardResponse はリダイレクト先をLocationヘッダーで示しつつ
// 統一エラーフォーマットを書き込む。SPAクライアントはLocationを見て
// クライアントサイドルーティングで遷移する。
func writeGuardResponse(w http.ResponseWriter, statusCode int, location string, apiErr *model.APIError) {
	w.Header().Set("Location", location)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}
