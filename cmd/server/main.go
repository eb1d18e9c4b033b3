package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/cinema-parking-reservation/internal/clock"
	"github.com/iliyamo/cinema-parking-reservation/internal/config"
	"github.com/iliyamo/cinema-parking-reservation/internal/database"
	"github.com/iliyamo/cinema-parking-reservation/internal/handler"
	"github.com/iliyamo/cinema-parking-reservation/internal/logging"
	"github.com/iliyamo/cinema-parking-reservation/internal/metrics"
	"github.com/iliyamo/cinema-parking-reservation/internal/middleware"
	"github.com/iliyamo/cinema-parking-reservation/internal/queue"
	"github.com/iliyamo/cinema-parking-reservation/internal/ratelimit"
	"github.com/iliyamo/cinema-parking-reservation/internal/repository"
	"github.com/iliyamo/cinema-parking-reservation/internal/router"
	"github.com/iliyamo/cinema-parking-reservation/internal/seed"
	"github.com/iliyamo/cinema-parking-reservation/internal/service"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run() error {
	cfg := config.Load()
	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, dialect, err := openDatabase(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("open database")
		return err
	}
	defer db.Close()

	if cfg.DBAutoMigrate || dialect == database.DialectSQLite {
		if err := database.EnsureSchema(ctx, db, dialect); err != nil {
			return err
		}
		logger.Info().Str("dialect", dialect).Msg("schema ensured")
	}

	lots := repository.NewParkingLotRepo(db)
	if cfg.Parking.LotsFile != "" {
		n, err := seed.SeedLots(ctx, cfg.Parking.LotsFile, lots)
		if err != nil {
			logger.Error().Err(err).Str("file", cfg.Parking.LotsFile).Msg("seed parking lots")
			return err
		}
		logger.Info().Int("lots", n).Msg("parking lots seeded")
	}

	rdb := initRedis(logger)
	if rdb != nil {
		defer rdb.Close()
	}

	publisher, closePublisher := initPublisher(cfg.Events, logger)
	defer closePublisher()

	clk := clock.NewSystem()
	svc := service.NewParkingService(service.Deps{
		Reservations: repository.NewParkingReservationRepo(db),
		Lots:         lots,
		Bookings:     repository.NewBookingRepo(db),
		Limiter:      holdLimiter(cfg.HoldLimit, rdb, clk, logger),
		Publisher:    publisher,
		Clock:        clk,
		Logger:       logger,
	}, cfg.Parking.HoldTTL)
	logger.Info().Dur("hold_ttl", svc.HoldTTL()).Int("hold_limit", cfg.HoldLimit.Max).Msg("parking service ready")

	if cfg.MetricsEnabled {
		metrics.Register()
	}

	var wg sync.WaitGroup
	if cfg.Parking.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.RunSweeper(ctx, cfg.Parking.SweepInterval)
		}()
		logger.Info().Dur("interval", cfg.Parking.SweepInterval).Msg("expired hold sweeper started")
	}
	if cfg.Events.Enabled && cfg.Events.RunConsumer {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runAuditConsumer(ctx, cfg.Events, logger)
		}()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLogger(*logger))

	router.RegisterRoutes(e, &handler.ReadyHandler{DB: db, Redis: rdb}, cfg.MetricsEnabled)
	router.RegisterParking(e, handler.NewParkingHandler(svc, cfg.HoldLimit.Window, *logger), router.Options{
		JWTSecret: cfg.JWTSecret,
		Throttle:  middleware.NewRequestThrottle(config.LoadRateLimitConfig(), rdb, *logger),
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, *logger),
	})

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.App.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			stop()
			wg.Wait()
			return err
		}
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	wg.Wait()
	return nil
}

// openDatabase connects to MySQL, or to a SQLite file named by DB_NAME when
// DB_DRIVER=sqlite3 (local development).
func openDatabase(cfg config.Config) (*sql.DB, string, error) {
	if cfg.DBDriver == database.DialectSQLite {
		db, err := database.OpenSQLite(cfg.DBName)
		return db, database.DialectSQLite, err
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	return db, database.DialectMySQL, err
}

func initRedis(logger *zerolog.Logger) *redis.Client {
	rcfg := config.LoadRedisConfig()
	rdb, err := config.NewRedisClient(rcfg)
	if err != nil {
		logger.Warn().Err(err).Str("addr", rcfg.Addr).Msg("redis unavailable; using in-process limiters and no cache")
		return nil
	}
	logger.Info().Str("addr", rcfg.Addr).Msg("redis connected")
	return rdb
}

func holdLimiter(cfg config.HoldLimitConfig, rdb *redis.Client, clk clock.Clock, logger *zerolog.Logger) ratelimit.Limiter {
	if cfg.Backend == "redis" {
		if rdb != nil {
			return ratelimit.NewRedisSlidingWindow(rdb, cfg.Max, cfg.Window, "rl:hold", clk)
		}
		logger.Warn().Msg("hold limiter backend is redis but redis is unavailable; using memory")
	}
	return ratelimit.NewSlidingWindow(cfg.Max, cfg.Window, clk)
}

func initPublisher(cfg config.EventsConfig, logger *zerolog.Logger) (service.EventPublisher, func()) {
	if !cfg.Enabled {
		return queue.NopPublisher{}, func() {}
	}
	p := queue.NewPublisher(cfg.URL, cfg.Queue, *logger)
	return p, func() { _ = p.Close() }
}

func runAuditConsumer(ctx context.Context, cfg config.EventsConfig, logger *zerolog.Logger) {
	f, err := logging.OpenAppend(cfg.AuditLog)
	if err != nil {
		logger.Error().Err(err).Str("file", cfg.AuditLog).Msg("audit consumer disabled")
		return
	}
	defer f.Close()
	audit := zerolog.New(f).With().Timestamp().Logger()
	if err := queue.StartAuditConsumer(ctx, cfg.URL, cfg.Queue, audit, *logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("audit consumer stopped")
	}
}
