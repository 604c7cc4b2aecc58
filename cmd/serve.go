package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	bookingpb "github.com/Leganyst/clinic-booking/internal/api/booking/v1"
	"github.com/Leganyst/clinic-booking/internal/cache"
	"github.com/Leganyst/clinic-booking/internal/config"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/events"
	"github.com/Leganyst/clinic-booking/internal/gateway"
	"github.com/Leganyst/clinic-booking/internal/logger"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
	"github.com/Leganyst/clinic-booking/internal/service"
	"github.com/Leganyst/clinic-booking/internal/webhook"
)

func runServer(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Конфиг и логгер.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.App, cfg.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	loc, err := cfg.App.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	// 2. БД и миграции.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("sql DB: %w", err)
	}
	defer sqlDB.Close()

	// 3. Репозитории и транзакции.
	repos := repository.NewRepositories(gormDB)
	tx := db.NewTransactor(gormDB)

	// 4. Redis необязателен: без него тарифы и окна читаются из БД.
	var kv cache.Cache
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		kv = cache.NewRedisCache(client, "clinic-booking")
		log.Info("redis cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	var feeResolver service.FeeResolver = service.NewRepositoryFeeResolver(repos.Fees)
	if kv != nil {
		feeResolver = service.NewCachedFeeResolver(feeResolver, kv, cfg.Redis.TTL, log)
	}

	// 5. Брокер событий.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.Enabled {
		rp, err := events.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			return err
		}
		publisher = rp
		log.Info("rabbitmq publisher enabled", zap.String("exchange", cfg.RabbitMQ.Exchange))
	}
	defer publisher.Close()

	// 6. Сервисы.
	xendit := gateway.NewXenditClient(cfg.Xendit, log)
	audit := service.NewAuditLog(repos.Events, publisher, log)
	payments := service.NewPaymentService(tx, repos, xendit, audit, log)
	booking := service.NewBookingService(tx, repos, feeResolver, payments, audit, log, loc)
	availability := service.NewAvailabilityService(tx, repos, audit, kv, cfg.Redis.TTL, log, loc)

	// 7. gRPC-сервер.
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		service.UnaryRecoveryInterceptor(log),
		service.UnaryLoggingInterceptor(log),
	))
	bookingpb.RegisterBookingServiceServer(grpcServer, service.NewBookingServer(booking, payments, availability))
	healthServer := health.NewServer()
	healthServer.SetServingStatus(bookingpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr, err)
	}

	// 8. HTTP: вебхуки шлюза и healthz.
	hook := webhook.NewHandler(payments, cfg.Xendit.WebhookToken, log)
	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           webhook.NewRouter(hook, sqlDB.PingContext, cfg.HTTP.WebhookRateLimit, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info("gRPC server listening", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()

	// 9. Грейсфул-шатдаун по сигналу или падению одного из серверов.
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		log.Error("server failed, shutting down", zap.Error(err))
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		log.Warn("http shutdown", zap.Error(serr))
	}
	grpcServer.GracefulStop()
	return err
}
