// Package app はeloraの起動処理と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/hitoshi/elora/internal/agent"
	"github.com/hitoshi/elora/internal/auth"
	"github.com/hitoshi/elora/internal/biometric"
	"github.com/hitoshi/elora/internal/config"
	"github.com/hitoshi/elora/internal/crisis"
	"github.com/hitoshi/elora/internal/database"
	"github.com/hitoshi/elora/internal/handler"
	"github.com/hitoshi/elora/internal/logger"
	"github.com/hitoshi/elora/internal/messaging"
	"github.com/hitoshi/elora/internal/metrics"
	"github.com/hitoshi/elora/internal/middleware"
	"github.com/hitoshi/elora/internal/qa"
	"github.com/hitoshi/elora/internal/repository"
	"github.com/hitoshi/elora/internal/security"
	"github.com/hitoshi/elora/internal/worker/retention"
)

var errRetentionDisabled = errors.New("voice retention is disabled: set VOICE_RETENTION_DAYS to a positive number of days")

const (
	shutdownTimeout   = 30 * time.Second
	retentionInterval = 24 * time.Hour

	// 外部APIレスポンスの上限サイズ
	outboundMaxResponseSize = 1 << 20
)

// Init はアプリケーションの初期化を行う。
// JSON構造化ログをセットアップしてから.envファイルと環境変数を読み込む。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer, envFile string) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envを読み込む。既存の環境変数が優先される
	if envFile != "" {
		if err := config.LoadDotEnv(envFile); err != nil {
			return nil, err
		}
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	root := NewRootCommand(w)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Ping(ctx, db, 10*time.Second); err != nil {
		return err
	}
	slog.Info("database connection established")

	// 2. 依存関係のワイヤリング
	server, cleanup, err := newServer(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	// 3. HTTPサーバーの起動
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 保持期間ジョブを日次でバックグラウンド実行。VOICE_RETENTION_DAYS未設定時は何もしない
	go retention.NewJob(db, slog.Default(), cfg.VoiceRetentionDays).Start(ctx, retentionInterval)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// newServer はサービス群を組み立て、ルーターを載せたhttp.Serverを返す。
// 返されるcleanupはRedis接続やレート制限のゴルーチンを解放する。
func newServer(ctx context.Context, cfg *config.Config, db *sql.DB) (*http.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// 外部接続先の検証
	guard := security.NewOutboundGuard()
	if err := security.ValidateURLs(guard, map[string]string{
		"GOOGLE_TOKENINFO_URL": cfg.GoogleTokenInfoURL,
		"WIKIPEDIA_API_URL":    cfg.WikipediaAPIURL,
		"WIKIPEDIA_REST_URL":   cfg.WikipediaRESTURL,
		"TELEGRAM_API_URL":     cfg.TelegramAPIURL,
		"TWILIO_API_URL":       cfg.Twilio.APIURL,
	}); err != nil {
		return nil, nil, fmt.Errorf("invalid outbound url: %w", err)
	}
	messagingClient := guard.NewSafeClient(messaging.DefaultTimeout, outboundMaxResponseSize)

	// メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	// リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	profileRepo := repository.NewPostgresVoiceProfileRepo(db)
	sessionRepo := repository.NewPostgresVoiceSessionRepo(db)
	pingRepo := repository.NewPostgresVoicePingRepo(db)
	faceRepo := repository.NewPostgresFaceRepo(db)

	// 認証
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	var google auth.IDTokenVerifier
	if cfg.GoogleClientID != "" {
		google = auth.NewGoogleVerifier(auth.GoogleVerifierConfig{
			ClientID:     cfg.GoogleClientID,
			TokenInfoURL: cfg.GoogleTokenInfoURL,
		}, guard.NewSafeClient(10*time.Second, outboundMaxResponseSize))
	}
	authService := auth.NewService(userRepo, tokens, google)

	// 危機カウンター
	var store crisis.CounterStore = crisis.NewMemoryStore()
	if cfg.RedisURL != "" {
		redisStore, err := crisis.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { redisStore.Close() })
		store = redisStore
		slog.Info("crisis counters backed by redis")
	}
	tracker := crisis.NewTracker(store, cfg.CrisisThreshold)

	// メッセージ送信
	dispatcher := messaging.NewDispatcher(
		messaging.NewEmailSender(messaging.EmailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			User:     cfg.SMTP.User,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}),
		messaging.NewTelegramSender(cfg.TelegramBotToken, cfg.TelegramAPIURL, messagingClient),
		messaging.NewWhatsAppSender(messaging.TwilioConfig{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			From:       cfg.Twilio.WhatsAppFrom,
			BaseURL:    cfg.Twilio.APIURL,
		}, messagingClient),
	)
	agentService := agent.NewService(userRepo, tracker, dispatcher, collector)

	// Q&A
	var sources []qa.Source
	if cfg.OpenAIAPIKey != "" {
		sources = append(sources, qa.Source{
			Name: "openai",
			Answerer: qa.NewOpenAIAnswerer(cfg.OpenAIAPIKey, cfg.OpenAIModel,
				option.WithHTTPClient(guard.NewSafeClient(30*time.Second, outboundMaxResponseSize))),
		})
	}
	sources = append(sources, qa.Source{
		Name: "wikipedia",
		Answerer: qa.NewWikipediaAnswerer(qa.WikipediaConfig{
			APIURL:  cfg.WikipediaAPIURL,
			RESTURL: cfg.WikipediaRESTURL,
		}, guard.NewSafeClient(qa.WikipediaTimeout, outboundMaxResponseSize)),
	})
	qaService := qa.NewService(security.NewTextSanitizer(), collector, sources...)

	biometricService := biometric.NewService(profileRepo, sessionRepo, pingRepo, faceRepo, collector)

	// ルーター
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.IPRate = rate.Limit(cfg.RateLimitRPS)
	rateLimiterCfg.IPBurst = cfg.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	closers = append(closers, rateLimiter.Stop)

	router := handler.NewRouter(&handler.RouterDeps{
		TokenVerifier:      authService,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        rateLimiter,
		Logger:             slog.Default(),
		Metrics:            collector,
		MetricsHandler:     metrics.Handler(reg),
		HealthChecker:      db,

		AuthService:      authService,
		AgentService:     agentService,
		QAService:        qaService,
		BiometricService: biometricService,
		OwnerPasskey:     cfg.OwnerLaunchPasskey,
	})

	slog.Info("services wired",
		slog.Bool("google_signin", google != nil),
		slog.Bool("openai", cfg.OpenAIAPIKey != ""),
		slog.Bool("owner_plan", cfg.OwnerLaunchPasskey != ""),
		slog.Int("crisis_threshold", cfg.CrisisThreshold),
	)

	// WriteTimeoutはWebSocketストリームを切断しないよう設定しない
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return server, cleanup, nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runPrune は保持期間を超過した音声データを1回だけ削除する。
// 保持期間が設定されていない場合はDBに接続せずエラーを返す。
func runPrune(ctx context.Context, cfg *config.Config) error {
	if cfg.VoiceRetentionDays <= 0 {
		return errRetentionDisabled
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := retention.NewJob(db, slog.Default(), cfg.VoiceRetentionDays).Run(ctx); err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	return nil
}

// runHealthcheck は/healthエンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
