package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/elora/internal/metrics"
	"github.com/hitoshi/elora/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier      middleware.TokenVerifier
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Logger             *slog.Logger             // nilの場合はslog.Default()
	Metrics            metrics.MetricsCollector // nilの場合は記録しない
	MetricsHandler     http.Handler             // nilの場合は/metricsを公開しない
	HealthChecker      HealthChecker

	// サービス
	AuthService      AuthServiceInterface
	AgentService     AgentServiceInterface
	QAService        QAServiceInterface
	BiometricService BiometricServiceInterface

	// オーナープランのパスキー。空の場合は未設定
	OwnerPasskey string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → Logging → SecurityHeaders → RateLimit(PerIP)
//
// 認証が必要なルートはさらにBearerAuthを通過する。/agent/messageはユーザー単位のレート制限も適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(deps.RateLimiter.PerIPMiddleware())

	authHandler := NewAuthHandler(deps.AuthService)
	agentHandler := NewAgentHandler(deps.AgentService)
	qaHandler := NewQAHandler(deps.QAService)
	plansHandler := NewPlansHandler(deps.OwnerPasskey)
	bioHandler := NewBiometricHandler(deps.BiometricService)
	streamHandler := NewStreamHandler(deps.BiometricService, deps.CORSAllowedOrigins)

	// --- 認証不要のルート ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker).Health)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/signin", authHandler.SignIn)
		r.Post("/google", authHandler.GoogleSignIn)
	})

	r.Get("/plans/protected", plansHandler.Protected)
	r.Post("/qa/ask", qaHandler.Ask)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBearerAuthMiddleware(deps.TokenVerifier))

		r.Route("/agent", func(r chi.Router) {
			r.Post("/activate", agentHandler.Activate)
			r.With(deps.RateLimiter.MessageMiddleware()).Post("/message", agentHandler.SendMessage)
		})

		r.Route("/biometrics", func(r chi.Router) {
			r.Post("/face", bioHandler.SaveFace)

			r.Route("/voice", func(r chi.Router) {
				r.Post("/enroll", bioHandler.EnrollVoice)
				r.Post("/session/start", bioHandler.StartSession)
				r.Post("/session/stop", bioHandler.StopSession)
				r.Post("/ping", bioHandler.SubmitPing)
				r.Get("/stream", streamHandler.Stream)
			})
		})
	})

	return r
}
