package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joshpeterson/whatsfordinner/internal/metrics"
	"github.com/joshpeterson/whatsfordinner/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
// 全コラボレーターを構築済みの依存として明示的に受け取る。
// ハンドラー内で遅延初期化されるグローバルは存在しない。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 夕食
	DinnerService DinnerServiceInterface

	// 描画
	Renderer *Renderer

	// 運用
	HealthChecker  HealthChecker
	Metrics        *metrics.Collector
	MetricsHandler http.Handler
}

// NewRouter は全ルートとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → Metrics → SecurityHeaders → MethodOverride → Session
//
// Sessionミドルウェアは認証を強制しない。未ログインの扱い（/loginへの
// リダイレクト）は各ハンドラーの所有権ゲートが決める。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewMethodOverrideMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))

	var loginRecorder LoginRecorder
	var dinnerRecorder DinnerRecorder
	if deps.Metrics != nil {
		loginRecorder = deps.Metrics
		dinnerRecorder = deps.Metrics
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, loginRecorder, deps.AuthConfig)
	dinnerHandler := NewDinnerHandler(deps.DinnerService, deps.Renderer, dinnerRecorder)

	// 認証フロー
	r.Get("/login", authHandler.LoginForm)
	if deps.RateLimiter != nil {
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/login/openid", authHandler.BeginOpenID)
	} else {
		r.Post("/login/openid", authHandler.BeginOpenID)
	}
	r.Get("/login/openid/complete", authHandler.CompleteOpenID)
	r.Get("/logout", authHandler.Logout)

	// 夕食管理
	r.Get("/", dinnerHandler.Home)
	r.Get("/dinners", dinnerHandler.List)
	r.Post("/dinner/create", dinnerHandler.Create)
	r.Route("/dinner/{id}", func(r chi.Router) {
		r.Get("/delete", dinnerHandler.ConfirmDelete)
		r.Delete("/", dinnerHandler.Delete)
	})

	// 静的ページ
	r.Get("/about", dinnerHandler.About)

	// 運用エンドポイント
	r.Get("/health", newHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	return r
}

// newHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}
}
