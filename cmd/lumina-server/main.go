package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lumina/backend/internal/config"
	"lumina/backend/internal/domain"
	"lumina/backend/internal/locale"
	"lumina/backend/internal/metrics"
	"lumina/backend/internal/service/identity"
	"lumina/backend/internal/service/scheduler"
	"lumina/backend/internal/store"
	"lumina/backend/internal/store/memory"
	"lumina/backend/internal/store/postgres"
	redisstore "lumina/backend/internal/store/redis"
	grpcTransport "lumina/backend/internal/transport/grpc"
	httpTransport "lumina/backend/internal/transport/http"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "lumina-server"),
	)
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "lumina-server"),
	)
	slog.SetDefault(log)

	log.Info(
		"starting",
		slog.String("grpc_addr", cfg.GRPCAddr),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("store", cfg.StoreDriver),
		slog.String("log_level", cfg.LogLevel),
	)

	holidays := domain.DefaultHolidays()
	if len(cfg.BookingHolidays) > 0 {
		holidays, err = domain.NewHolidaySet(cfg.BookingHolidays...)
		if err != nil {
			log.Error("invalid booking holidays", slog.Any("err", err))
			os.Exit(1)
		}
	}
	lang, ok := locale.Parse(cfg.BookingLanguage)
	if !ok {
		lang = locale.English
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, ready, closeStore, err := openStore(ctx, log, cfg)
	if err != nil {
		os.Exit(1)
	}
	defer closeStore()

	users := identity.NewService(repo, log)
	sessions := scheduler.NewSessions(
		func(userID string) scheduler.BookingSink { return users.Sink(userID) },
		scheduler.Config{
			Holidays: holidays,
			Slots:    timeSlots(lang),
			Zone:     domain.ReferenceZone(cfg.BookingUTCOffset),
			Metrics:  metrics.NewBookingMetrics(registry),
			Log:      log,
		},
	)

	interceptors := []grpc.UnaryServerInterceptor{defaultRequestTimeoutInterceptor(cfg.GRPCRequestTimeout)}
	if cfg.GRPCRateLimit > 0 {
		interceptors = append([]grpc.UnaryServerInterceptor{
			rateLimitInterceptor(rate.NewLimiter(rate.Limit(cfg.GRPCRateLimit), cfg.GRPCRateBurst)),
		}, interceptors...)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	grpcTransport.RegisterBookingServiceServer(grpcServer, grpcTransport.NewBookingServer(sessions, users, lang, log))

	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpTransport.NewRouter(httpTransport.Config{
			Ready:   ready,
			Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Log:     log,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("servers started", slog.String("grpc_addr", cfg.GRPCAddr), slog.String("http_addr", cfg.HTTPAddr))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdown(log, grpcServer, httpServer, cfg.ShutdownTimeout)
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("server stopped with error", slog.Any("err", err))
			shutdown(log, grpcServer, httpServer, cfg.ShutdownTimeout)
			os.Exit(1)
		}
	}
}

// openStore returns the configured user repository, its readiness check and
// a close func. Failures are logged here.
func openStore(ctx context.Context, log *slog.Logger, cfg config.Config) (store.UserRepository, func(context.Context) error, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := postgres.Open(openCtx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
			log.Error("database connection failed", args...)
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := postgres.Close(db); err != nil {
				log.Warn("database close failed", slog.Any("err", err))
			}
		}
		ready := func(ctx context.Context) error { return postgres.Ping(ctx, db) }
		return postgres.NewUserRepo(db), ready, closeFn, nil

	case config.StoreRedis:
		log.Info("connecting to redis", slog.String("redis_addr", cfg.RedisAddr), slog.Int("redis_db", cfg.RedisDB))
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Error("redis connection failed", slog.Any("err", err), slog.String("redis_addr", cfg.RedisAddr))
			_ = rdb.Close()
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", slog.Any("err", err))
			}
		}
		ready := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		return redisstore.NewUserRepo(rdb), ready, closeFn, nil
	}

	log.Warn("using in-memory store; data is lost on restart")
	return memory.NewUserRepo(), nil, func() {}, nil
}

func timeSlots(lang locale.Language) []domain.TimeSlot {
	labels := locale.Strings(lang, "timeSlots")
	out := make([]domain.TimeSlot, 0, len(labels))
	for _, l := range labels {
		out = append(out, domain.TimeSlot(l))
	}
	return out
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

// rateLimitInterceptor sheds load instead of queueing it.
func rateLimitInterceptor(limiter *rate.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !limiter.Allow() {
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return handler(ctx, req)
	}
}

func shutdown(log *slog.Logger, s *grpc.Server, h *http.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := h.Shutdown(ctx); err != nil {
		log.Warn("http shutdown failed", slog.Any("err", err))
	}

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc server stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		s.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
