package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/minato/airwave/internal/middleware"
	"github.com/minato/airwave/internal/model"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	HealthChecker HealthChecker

	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	RoleResolver      middleware.RoleResolver
	MaintenanceGate   middleware.MaintenanceGate
	GuardMetrics      middleware.GuardRecorder
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	SecurityHeaders   middleware.SecurityHeadersConfig
	Logger            *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	AuthMetrics SignInRecorder

	// コンテンツ
	PodcastService PodcastServiceInterface
	ImportMetrics  ImportRecorder
	NewsService    NewsServiceInterface
	EventService   EventServiceInterface
	ScheduleService ScheduleServiceInterface
	ChartService   ChartServiceInterface
	ContactService ContactServiceInterface
	ContactMetrics ContactRecorder

	// 配信
	NowPlaying NowPlayingProvider

	// 管理
	AdminUsers    AdminUserStore
	AdminRoles    AdminRoleStore
	AdminSessions AdminSessionStore
	AdminSettings AdminSettingsStore
	AdminGate     MaintenanceRefresher
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → CSRF
//
// 公開ルートはそのまま、認証が必要なルートはさらに
// Session → RateLimit(General) → Guard を通す。
// ガードの要求ロールはルートグループごとに異なる:
//
//	/api/me/*      認証のみ（要求ロールなし）
//	コンテンツ書き込み  moderator（adminは暗黙に含む）
//	/api/admin/*   admin
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.SecurityHeaders))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.AuthMetrics)
	podcastHandler := NewPodcastHandler(deps.PodcastService, deps.ImportMetrics)
	newsHandler := NewNewsHandler(deps.NewsService)
	eventHandler := NewEventHandler(deps.EventService)
	scheduleHandler := NewScheduleHandler(deps.ScheduleService)
	chartHandler := NewChartHandler(deps.ChartService)
	contactHandler := NewContactHandler(deps.ContactService, deps.ContactMetrics)
	nowPlayingHandler := NewNowPlayingHandler(deps.NowPlaying)
	adminHandler := NewAdminHandler(deps.AdminUsers, deps.AdminRoles, deps.AdminSessions, deps.AdminSettings, deps.AdminGate)

	guardDeps := middleware.GuardDeps{
		Resolver: deps.RoleResolver,
		Gate:     deps.MaintenanceGate,
		Metrics:  deps.GuardMetrics,
	}

	// --- 認証不要のルート ---

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/signup", authHandler.SignUp)
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.SignIn)
		r.Post("/logout", authHandler.SignOut)
		r.Get("/me", authHandler.Me)
	})

	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// 公開コンテンツ（読み取り）
	r.Get("/api/schedule", scheduleHandler.List)
	r.Get("/api/news", newsHandler.ListPublished)
	r.Get("/api/news/{id}", newsHandler.Get)
	r.Get("/api/events", eventHandler.ListUpcoming)
	r.Get("/api/podcasts", podcastHandler.List)
	r.Get("/api/podcasts/{id}", podcastHandler.Get)
	r.Get("/api/podcasts/{id}/episodes", podcastHandler.ListEpisodes)
	r.Get("/api/charts/latest", chartHandler.Latest)
	r.Get("/api/charts/{week}", chartHandler.ByWeek)
	r.Get("/api/nowplaying", nowPlayingHandler.Get)

	// お問い合わせ投稿（IP単位のレート制限付き）
	r.With(deps.RateLimiter.ContactMiddleware()).Post("/api/contact", contactHandler.Submit)

	// --- 認証が必要なルート ---

	// 認証のみ（要求ロールなし）。メンテナンス中は管理者以外503。
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewGuardMiddleware(guardDeps, nil))

		r.Get("/api/me/roles", handleMyRoles)
	})

	// モデレーター専用（adminは暗黙にモデレーター権限を持つ）
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewGuardMiddleware(guardDeps, model.NewRoleSet(model.RoleModerator)))

		// 公開ルートと同一パターンを持つため、サブルーターではなく
		// メソッド単位で登録する（メソッドごとにミドルウェアチェーンが異なる）。
		r.Post("/api/podcasts", podcastHandler.Create)
		r.Put("/api/podcasts/{id}", podcastHandler.Update)
		r.Delete("/api/podcasts/{id}", podcastHandler.Delete)
		r.Post("/api/podcasts/{id}/import", podcastHandler.Import)

		r.Get("/api/news/all", newsHandler.ListAll)
		r.Post("/api/news", newsHandler.Create)
		r.Put("/api/news/{id}", newsHandler.Update)
		r.Delete("/api/news/{id}", newsHandler.Delete)

		r.Post("/api/events", eventHandler.Create)
		r.Put("/api/events/{id}", eventHandler.Update)
		r.Delete("/api/events/{id}", eventHandler.Delete)

		r.Post("/api/schedule", scheduleHandler.Create)
		r.Put("/api/schedule/{id}", scheduleHandler.Update)
		r.Delete("/api/schedule/{id}", scheduleHandler.Delete)

		r.Put("/api/charts/{week}", chartHandler.Replace)

		r.Get("/api/contact", contactHandler.List)
		r.Delete("/api/contact/{id}", contactHandler.Delete)
	})

	// 管理者専用
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewGuardMiddleware(guardDeps, model.NewRoleSet(model.RoleAdmin)))

		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/users", adminHandler.ListUsers)
			r.Delete("/users/{id}", adminHandler.DeleteUser)
			r.Delete("/users/{id}/sessions", adminHandler.RevokeSessions)
			r.Post("/users/{id}/roles", adminHandler.AssignRole)
			r.Delete("/users/{id}/roles/{role}", adminHandler.RevokeRole)

			r.Get("/maintenance", adminHandler.GetMaintenance)
			r.Put("/maintenance", adminHandler.SetMaintenance)
		})
	})

	return r
}

// handleMyRoles はガードを通過したリクエストのロール集合を返す。
// GET /api/me/roles
func handleMyRoles(w http.ResponseWriter, r *http.Request) {
	roleSet := middleware.RoleSetFromContext(r.Context())

	roles := make([]string, 0, len(roleSet))
	for _, role := range roleSet.Values() {
		roles = append(roles, string(role))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roles":        roles,
		"is_admin":     roleSet.IsAdmin(),
		"is_moderator": roleSet.IsModerator(),
	})
}
