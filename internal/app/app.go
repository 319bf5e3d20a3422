package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/blog/internal/auth"
	"github.com/hitoshi/blog/internal/config"
	"github.com/hitoshi/blog/internal/database"
	"github.com/hitoshi/blog/internal/handler"
	"github.com/hitoshi/blog/internal/logger"
	"github.com/hitoshi/blog/internal/metrics"
	"github.com/hitoshi/blog/internal/middleware"
	"github.com/hitoshi/blog/internal/post"
	"github.com/hitoshi/blog/internal/repository"
	"github.com/hitoshi/blog/internal/security"
	"github.com/hitoshi/blog/internal/user"
	"github.com/hitoshi/blog/internal/view"
	"github.com/hitoshi/blog/internal/worker/cleanup"
)

// passwordEnvVar はcreateuserでパスワードを受け取る環境変数。
const passwordEnvVar = "BLOG_PASSWORD"

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	if len(args) > 0 && isHelpArg(args[0]) {
		printUsage(w)
		return nil
	}

	cmd, known := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if !known {
		slog.Warn("unknown command, starting the web server instead",
			slog.String("command", args[0]),
		)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateUser:
		return runCreateUser(cfg, args[1:])
	default:
		return runServe(cfg)
	}
}

func isHelpArg(arg string) bool {
	switch arg {
	case "help", "-h", "-help", "--help":
		return true
	}
	return false
}

// runServe はWebサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)

	// 3. メトリクスの初期化
	reg := newMetricsRegistry()
	collector := metrics.NewCollector(reg)

	// 4. セキュリティ・描画の初期化
	markdown := security.NewMarkdownRenderer(security.NewContentSanitizer())
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	renderer, err := view.NewRenderer(markdown, cfg.SiteTitle)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	// 5. ドメインサービスの初期化
	authService := auth.NewService(
		userRepo, sessionRepo, hasher, collector,
		auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAge},
	)
	postService := post.NewService(
		postRepo, userRepo, post.NewFormValidator(),
		post.WithMetrics(collector),
	)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitWrite, cfg.RateLimitLogin),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		UserResolver: authService,
		RateLimiter:  rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Logger: slog.Default(),

		Renderer: renderer,
		Markdown: markdown,

		PostService: postService,

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		FeedConfig: handler.FeedHandlerConfig{
			BaseURL:   cfg.BaseURL,
			SiteTitle: cfg.SiteTitle,
			Size:      cfg.FeedSize,
		},

		HealthChecker:    db,
		MetricsCollector: collector,
		MetricsGatherer:  reg,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("HTTP server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、期限切れセッションのクリーンアップジョブを定期実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. メトリクスの初期化
	reg := newMetricsRegistry()
	collector := metrics.NewCollector(reg)

	// 3. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(repository.NewPostgresSessionRepo(db), slog.Default(), collector)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 4. /metrics専用サーバーの起動
	metricsServer := newWorkerMetricsServer(cfg.WorkerMetricsPort, reg)
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("worker metrics server starting", slog.String("addr", metricsServer.Addr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	slog.Info("worker starting",
		slog.Duration("session_cleanup_interval", cfg.SessionCleanupInterval),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	cleanupJob.Start(ctx, cfg.SessionCleanupInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("worker metrics server shutdown failed", slog.String("error", err.Error()))
	}

	select {
	case err := <-serveErr:
		return fmt.Errorf("worker metrics listen error: %w", err)
	default:
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// newMetricsRegistry はGo/プロセスのコレクターを登録済みのレジストリを生成する。
func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// newWorkerMetricsServer はワーカーの/metricsと/healthを公開するHTTPサーバーを生成する。
func newWorkerMetricsServer(port string, gatherer prometheus.Gatherer) *http.Server {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics.SetupMetricsRoute(gatherer))
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", database.RedactURL(cfg.DatabaseURL)),
	)

	status, err := database.Migrate(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("schema_version", uint64(status.Version)),
		slog.Bool("applied", status.Applied),
	)
	return nil
}

// parseCreateUserArgs はcreateuserサブコマンドの引数を解析する。
// パスワードは-passwordフラグ、未指定の場合はBLOG_PASSWORD環境変数から取得する。
func parseCreateUserArgs(args []string) (user.CreateUserInput, error) {
	fs := flag.NewFlagSet(string(CommandCreateUser), flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var input user.CreateUserInput
	fs.StringVar(&input.Username, "username", "", "login username")
	fs.StringVar(&input.Email, "email", "", "email address")
	fs.StringVar(&input.Password, "password", "", "password (defaults to $"+passwordEnvVar+")")

	if err := fs.Parse(args); err != nil {
		return user.CreateUserInput{}, fmt.Errorf("invalid createuser arguments: %w", err)
	}

	if input.Password == "" {
		input.Password = os.Getenv(passwordEnvVar)
	}
	if input.Username == "" {
		return user.CreateUserInput{}, fmt.Errorf("-username is required")
	}
	if input.Password == "" {
		return user.CreateUserInput{}, fmt.Errorf("-password or %s is required", passwordEnvVar)
	}

	return input, nil
}

// runCreateUser はログイン用アカウントを作成する。
func runCreateUser(cfg *config.Config, args []string) error {
	input, err := parseCreateUserArgs(args)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	svc := user.NewService(
		repository.NewPostgresUserRepo(db),
		security.NewBcryptHasher(bcrypt.DefaultCost),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u, err := svc.CreateUser(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created",
		slog.String("user_id", u.ID),
		slog.String("username", u.Username),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
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
