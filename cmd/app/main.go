package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"telegram-email-bot/internal/application"
	"telegram-email-bot/internal/config"
	"telegram-email-bot/internal/domain/ports/adapter"
	tele "telegram-email-bot/internal/infra/adapters/telegram"
	pg "telegram-email-bot/internal/infra/db/postgres"
	"telegram-email-bot/internal/infra/logging"
	"telegram-email-bot/internal/infra/metrics"
	red "telegram-email-bot/internal/infra/redis"
	"telegram-email-bot/internal/infra/sched"
	"telegram-email-bot/internal/infra/sendstats"
	"telegram-email-bot/internal/infra/smtp"
	"telegram-email-bot/internal/infra/web"
	"telegram-email-bot/internal/infra/worker"
	"telegram-email-bot/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode: console logs, noop telegram when token is empty")
	flag.Parse()

	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewCommandLimiter(redisClient, 20, time.Minute)
	pendingRepo := red.NewPendingSendRepo(redisClient, cfg.Redis.TTL)
	cancelRegistry := red.NewCancelRegistry(redisClient)

	// ---- Repositories ----
	historyRepo := pg.NewPostgresHistoryRepo(pool)
	blocklistRepo := pg.NewPostgresBlocklistRepo(pool)
	groupRepo := pg.NewPostgresGroupRepo(pool)
	templateRepo := pg.NewPostgresTemplateRepo(pool)
	campaignRepo := pg.NewPostgresCampaignRepo(pool)

	// ---- Journal ----
	journal := sendstats.Open(cfg.Send.StatsPath)

	// ---- SMTP ----
	var logo []byte
	if cfg.Send.InlineLogo && cfg.Send.LogoPath != "" {
		logo, err = os.ReadFile(cfg.Send.LogoPath)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.Send.LogoPath).Msg("logo unavailable, sending without it")
			logo = nil
		}
	}
	unsub := smtp.NewUnsubscribe(cfg.Send.UnsubscribeURL, cfg.Send.UnsubscribeKey)
	builder := smtp.NewMessageBuilder(cfg.SMTP.Address, cfg.SMTP.FromName, logo, unsub)
	throttle := smtp.NewThrottle(
		cfg.SMTP.MaxPerMinute, cfg.SMTP.MaxPerHour,
		time.Duration(cfg.SMTP.JitterMinMs)*time.Millisecond,
		time.Duration(cfg.SMTP.JitterMaxMs)*time.Millisecond,
	)
	mailer := smtp.NewClient(cfg.SMTP, builder, throttle, logger)
	defer mailer.Close()

	// ---- Use cases ----
	cooldownUC := usecase.NewCooldownService(historyRepo, journal, cfg.Send.CooldownDays, logger)
	sendListUC := usecase.NewSendListUseCase(blocklistRepo, cooldownUC, historyRepo, logger)
	dispatchUC := usecase.NewDispatchUseCase(
		groupRepo, templateRepo, campaignRepo, historyRepo, blocklistRepo,
		sendListUC, mailer, journal, cancelRegistry,
		cfg.Send.SleepBetween, logger,
	)
	groupUC := usecase.NewGroupUseCase(groupRepo, templateRepo, tm, cfg.Send.DefaultSubject, logger)
	blocklistUC := usecase.NewBlocklistUseCase(blocklistRepo, logger)
	extractionUC := usecase.NewExtractionUseCase(cfg.Send, logger)
	statsUC := usecase.NewStatsUseCase(historyRepo, blocklistRepo, journal, logger)

	// ---- Facade ----
	facade := application.NewBotFacade(extractionUC, sendListUC, dispatchUC, groupUC, blocklistUC, statsUC, pendingRepo)

	// ---- Worker pool ----
	workerPool := worker.NewPool(cfg.Bot.Workers, logger)
	workerPool.Start(ctx)
	defer workerPool.Stop()

	// ---- Telegram ----
	var messenger adapter.BotMessenger
	var botAdapter *tele.RealTelegramBotAdapter
	if cfg.Bot.Token == "" {
		logger.Warn().Msg("no bot token, chat output goes to the log")
		messenger = tele.NewNoopBotAdapter(logger)
	} else {
		var err error
		botAdapter, err = tele.NewRealTelegramBotAdapter(&cfg.Bot, facade, rateLimiter, workerPool, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		go func() {
			if err := botAdapter.StartPolling(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("telegram polling stopped")
			}
		}()
		messenger = botAdapter
	}

	// ---- Admin HTTP server ----
	adminSrv := web.NewServer(statsUC, blocklistUC, groupUC, cfg.Admin.Port, cfg.Admin.APIKey, logger)
	go func() {
		if err := adminSrv.Start(); err != nil {
			logger.Error().Err(err).Msg("admin server")
		}
	}()

	// ---- Scheduled jobs ----
	cronRunner := cron.New()
	retention := sched.NewRetentionWorker(cfg.Scheduler.RetentionCron, cfg.Send.RetentionDays, statsUC, logger)
	if err := retention.Register(ctx, cronRunner); err != nil {
		logger.Fatal().Err(err).Msg("retention schedule")
	}
	digest := sched.NewDigestWorker(cfg.Scheduler.DigestCron, cfg.Bot.AdminIDs, statsUC, messenger, logger)
	if err := digest.Register(ctx, cronRunner); err != nil {
		logger.Fatal().Err(err).Msg("digest schedule")
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	logger.Info().Msg("started")

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")

	if botAdapter != nil {
		botAdapter.StopPolling()
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("admin server shutdown")
	}
	cancel()
}
