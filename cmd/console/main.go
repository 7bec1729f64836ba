package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/agentiq-console/internal/archive"
	"github.com/xela07ax/agentiq-console/internal/audit"
	"github.com/xela07ax/agentiq-console/internal/console/handler"
	"github.com/xela07ax/agentiq-console/internal/console/server"
	"github.com/xela07ax/agentiq-console/internal/console/service"
	"github.com/xela07ax/agentiq-console/internal/infra"
	"github.com/xela07ax/agentiq-console/internal/infra/auth"
	"github.com/xela07ax/agentiq-console/internal/policy"
	"github.com/xela07ax/agentiq-console/internal/repository/postgres"
	"github.com/xela07ax/agentiq-console/internal/session"
	"github.com/xela07ax/agentiq-console/internal/simulator"
	"github.com/xela07ax/agentiq-console/internal/ticket"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		return err
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Метрики
	reg := prometheus.NewRegistry()
	metrics := infra.NewMetrics(reg)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()

	// 3. Аудиторский архив (опционально): Postgres -> Reliability -> батчинг
	var archiver archive.Archiver
	if cfg.Database.URL != "" {
		db, err := postgres.Open(cfg.Database.URL)
		if err != nil {
			return err
		}
		repo := postgres.NewArchiveRepo(db)
		defer repo.Close()

		pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
		err = repo.Ping(pingCtx)
		pingCancel()
		if err != nil {
			return fmt.Errorf("database unreachable: %w", err)
		}
		if err := repo.EnsureSchema(appCtx); err != nil {
			return err
		}

		trail := archive.NewTrail(archive.NewReliableStorage(repo, logger), cfg.Archive, logger)
		trail.OnDepth(func(n int) { metrics.ArchiveBufferFill.Set(float64(n)) })
		trail.Start()
		defer trail.Stop()
		archiver = trail
	} else {
		logger.Info("archive disabled: database.url is empty")
	}

	// 4. Redis для сигналов об исполненных предложениях (опционально)
	var notifier service.RemediationNotifier
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		notifier = infra.NewRemediationPublisher(rdb, logger)
	} else {
		logger.Info("remediation signals disabled: redis.addr is empty")
	}

	// 5. Сессии
	sessions := session.NewManager(session.Options{
		RateLimit: cfg.Session.RateLimit,
		Burst:     cfg.Session.Burst,
	}, logger)
	sessions.OnCountChange(func(n int) { metrics.SessionsActive.Set(float64(n)) })
	go sessions.StartJanitor(appCtx, cfg.Session.SweepInterval, cfg.Session.IdleTTL)

	signer, err := auth.NewSigner(cfg.Auth.SessionSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	// 6. Сборка слоев (Dependency Injection)
	links := ticket.NewBuilder(cfg.Tickets)
	remediation := policy.DefaultPolicy{}
	generator := simulator.NewGenerator(remediation)
	aggregator := audit.NewAggregator(links, logger, metrics)

	sessionSvc := service.NewSessionService(sessions, generator, signer, metrics, notifier, archiver, logger)
	dashboardSvc := service.NewDashboardService(sessions, aggregator, links, notifier, archiver, logger)

	api := server.NewConsoleServer(logger, signer,
		handler.NewSessionHandler(sessionSvc, logger),
		handler.NewDashboardHandler(dashboardSvc, logger),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("console API started",
			zap.String("addr", srv.Addr),
			zap.String("policy", remediation.Name()),
			zap.Bool("archive", archiver != nil),
			zap.Bool("signals", notifier != nil))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("console API stopping...")
	cancel()

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("console API exited properly")
	return nil
}
