// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/aromabot/internal/almanac"
	"github.com/hitoshi/aromabot/internal/catalog"
	"github.com/hitoshi/aromabot/internal/command"
	"github.com/hitoshi/aromabot/internal/config"
	"github.com/hitoshi/aromabot/internal/database"
	"github.com/hitoshi/aromabot/internal/generator"
	"github.com/hitoshi/aromabot/internal/handler"
	"github.com/hitoshi/aromabot/internal/logger"
	"github.com/hitoshi/aromabot/internal/metrics"
	"github.com/hitoshi/aromabot/internal/repository"
	"github.com/hitoshi/aromabot/internal/security"
	"github.com/hitoshi/aromabot/internal/selection"
	"github.com/hitoshi/aromabot/internal/telegram"
	"github.com/hitoshi/aromabot/internal/worker/cleanup"
	"github.com/hitoshi/aromabot/internal/worker/daily"
	"github.com/hitoshi/aromabot/internal/worker/poll"
	repeatpkg "github.com/hitoshi/aromabot/internal/worker/repeat"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w)

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
	cmd := ParseCommand(args)

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

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("database_path", cfg.DatabasePath),
		slog.Int("recipients", len(cfg.ChatIDs)),
	)

	switch cmd {
	case CommandBot:
		return runBot(cfg)
	case CommandSendNow:
		return runSendNow(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runBot(cfg)
	}
}

// botDeps はボットモードで使う依存関係一式。
type botDeps struct {
	db        *sql.DB
	registry  *prometheus.Registry
	collector *metrics.Collector
	batch     *daily.Batch
	sweeper   *repeatpkg.Sweeper
	poller    *poll.Poller
	cleaner   *cleanup.CleanupJob
	telegram  *telegram.Client
}

// buildBotDeps はDB接続から全コンポーネントまでをワイヤリングする。
func buildBotDeps(cfg *config.Config) (*botDeps, error) {
	// 1. DB接続とスキーマ適用
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(cfg.DatabasePath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	oilRepo := repository.NewSQLiteOilRepo(db)
	messageRepo := repository.NewSQLiteMessageRepo(db)
	repeatRepo := repository.NewSQLiteRepeatRepo(db)
	reactionRepo := repository.NewSQLiteReactionRepo(db)
	lunarRepo := repository.NewSQLiteLunarRepo(db)
	auditRepo := repository.NewSQLiteAuditRepo(db)

	// 3. ドメインコンポーネントの初期化
	resolver := almanac.NewResolver(lunarRepo, slog.Default())
	engine := selection.NewEngine(
		rand.New(rand.NewSource(time.Now().UnixNano())), slog.Default(),
	)
	sanitizer := security.NewMessageSanitizer()

	genClient := generator.NewClient(
		&http.Client{Timeout: cfg.GenerationTimeout},
		cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL,
		slog.Default(),
	)
	orchestrator := generator.NewOrchestrator(genClient, slog.Default())

	tgClient := telegram.NewClient(
		&http.Client{Timeout: 30 * time.Second},
		cfg.TelegramBotToken,
		slog.Default(),
	)

	// 4. メトリクス
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 5. コマンド処理
	gatekeeper := command.NewGatekeeper(
		messageRepo, oilRepo, reactionRepo, repeatRepo, auditRepo,
		resolver, engine, orchestrator, collector,
		cfg.HistoryDays, cfg.Location, slog.Default(),
	)

	// 6. ワーカー
	batch := daily.NewBatch(
		messageRepo, oilRepo, resolver, engine, orchestrator,
		sanitizer, tgClient, collector,
		daily.Options{
			ChatIDs:      cfg.ChatIDs,
			LocaleFor:    cfg.LocaleForChat,
			AdminChatID:  cfg.AdminChatID,
			HistoryDays:  cfg.HistoryDays,
			SendHour:     cfg.SendHour,
			SendMinute:   cfg.SendMinute,
			Location:     cfg.Location,
			SendInterval: cfg.SendInterval,
			GenTimeout:   cfg.GenerationTimeout,
		},
		slog.Default(),
	)
	sweeper := repeatpkg.NewSweeper(
		repeatRepo, messageRepo, tgClient, sanitizer, collector,
		cfg.Location, slog.Default(),
	)
	poller := poll.NewPoller(tgClient, gatekeeper, sanitizer, cfg.LocaleForChat, slog.Default())
	cleaner := cleanup.NewCleanupJob(auditRepo, repeatRepo, slog.Default())
	cleaner.RetentionDays = cfg.LogRetentionDays

	return &botDeps{
		db:        db,
		registry:  registry,
		collector: collector,
		batch:     batch,
		sweeper:   sweeper,
		poller:    poller,
		cleaner:   cleaner,
		telegram:  tgClient,
	}, nil
}

// runBot はボットモードで起動する。
// 日次送信スケジューラ・再送スイープ・受信ポーリング・クリーンアップの
// 各ワーカーと運用HTTPサーバーを起動し、シグナル受信で停止する。
func runBot(cfg *config.Config) error {
	deps, err := buildBotDeps(cfg)
	if err != nil {
		return err
	}
	defer deps.db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// トークンの疎通確認。失敗しても起動は継続する（一時的な障害の可能性がある）。
	if info, err := deps.telegram.GetMe(ctx); err != nil {
		slog.Warn("bot token verification failed", slog.String("error", err.Error()))
	} else {
		slog.Info("bot token verified", slog.String("username", info.Username))
	}

	// 運用HTTPサーバー
	router := handler.NewRouter(&handler.RouterDeps{
		DB:       deps.db,
		Gatherer: deps.registry,
	})
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("operational server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down bot...")
		cancel()
	}()

	// バックグラウンドワーカー
	go deps.sweeper.Start(ctx, cfg.RepeatSweepInterval)
	go deps.poller.Start(ctx, cfg.PollInterval)
	go deps.cleaner.Start(ctx, 24*time.Hour)

	// テストモードでは起動直後に1回送信する
	if cfg.TestingMode {
		slog.Info("testing mode: sending batch immediately")
		go deps.batch.RunBatch(ctx)
	}

	// 日次送信スケジューラをメインgoroutineで実行（ブロッキング）
	deps.batch.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("bot stopped gracefully")
	return nil
}

// runSendNow は日次送信バッチを即時に1回実行して終了する。
func runSendNow(cfg *config.Config) error {
	deps, err := buildBotDeps(cfg)
	if err != nil {
		return err
	}
	defer deps.db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	deps.batch.RunBatch(ctx)
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations", slog.String("database_path", cfg.DatabasePath))

	if err := database.RunMigrations(cfg.DatabasePath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed はオイルカタログの初期データを投入する。
// マイグレーション未適用の場合は先に適用する。冪等に再実行できる。
func runSeed(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabasePath); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := catalog.Populate(ctx, repository.NewSQLiteOilRepo(db), slog.Default())
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}

	slog.Info("oil catalog seeded", slog.Int("count", count))
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
