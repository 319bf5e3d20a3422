package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/blog/internal/metrics"
	"github.com/hitoshi/blog/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	UserResolver middleware.UserResolver
	RateLimiter  *middleware.RateLimiter
	CSRFConfig   middleware.CSRFConfig
	Logger       *slog.Logger

	// 描画
	Renderer Renderer
	Markdown MarkdownRenderer

	// 記事
	PostService PostServiceInterface

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// Atomフィード
	FeedConfig FeedHandlerConfig

	// 運用
	HealthChecker    HealthChecker
	MetricsCollector metrics.MetricsCollector
	MetricsGatherer  prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Session → Logging → Metrics → CSRF
//
// /health と /metrics はセッション以降のミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	collector := deps.MetricsCollector
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		renderError(w, r, deps.Renderer, http.StatusInternalServerError)
	})))
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.AuthConfig.CookieSecure))

	postHandler := NewPostHandler(deps.PostService, deps.Renderer)
	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.AuthConfig)
	feedHandler := NewFeedHandler(deps.PostService, deps.Markdown, deps.FeedConfig)

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker).Health)
	}
	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(deps.MetricsGatherer))
	}

	// --- 画面 ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.UserResolver))
		r.Use(middleware.NewLoggingMiddleware(logger))
		r.Use(middleware.NewMetricsMiddleware(collector))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			renderError(w, r, deps.Renderer, http.StatusNotFound)
		})

		// 閲覧（ログイン不要）
		r.Get("/", postHandler.List)
		r.Get("/post/{id}", postHandler.Detail)
		r.Get("/author/{username}", postHandler.ByAuthor)
		r.Get("/authors", postHandler.Authors)
		r.Get("/feed.atom", feedHandler.Atom)

		// 認証
		r.Get(loginPath, authHandler.LoginForm)
		r.With(deps.RateLimiter.LoginMiddleware()).Post(loginPath, authHandler.Login)
		r.Post("/accounts/logout", authHandler.Logout)

		// 記事の作成・編集（ログイン必須、書き込みはユーザー単位でレート制限）
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewRequireLoginMiddleware(loginPath))
			r.Use(deps.RateLimiter.WriteMiddleware())

			r.Get("/post/new", postHandler.New)
			r.Post("/post/new", postHandler.Create)
			r.Get("/post/{id}/edit", postHandler.Edit)
			r.Post("/post/{id}/edit", postHandler.Update)
		})
	})

	return r
}
