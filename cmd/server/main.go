// Command server runs the course portal gateway.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/course-portal/internal/config"
	"github.com/iliyamo/course-portal/internal/database"
	"github.com/iliyamo/course-portal/internal/handler"
	"github.com/iliyamo/course-portal/internal/logging"
	"github.com/iliyamo/course-portal/internal/queue"
	"github.com/iliyamo/course-portal/internal/repository"
	"github.com/iliyamo/course-portal/internal/repository/memory"
	"github.com/iliyamo/course-portal/internal/router"
	"github.com/iliyamo/course-portal/internal/service"
)

const shutdownTimeout = 10 * time.Second

// loadDotenv loads the first .env found in the working directory or its
// parents.  A missing file is fine; production sets real variables.
func loadDotenv() {
	for _, p := range []string{".env", filepath.Join("..", ".env"), filepath.Join("..", "..", ".env")} {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			log.Println("[env] loaded", p)
			return
		}
	}
}

func main() {
	loadDotenv()
	cfg := config.Load()
	logger := logging.New(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg)
	if err != nil {
		logger.Error(ctx, "open store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn(ctx, "redis unreachable; cache and rate limiting disabled")
	} else {
		defer func(c *redis.Client) { _ = c.Close() }(rdb)
	}

	var events service.Publisher = service.NopPublisher{}
	if cfg.Events.Enabled {
		pub := service.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue)
		defer func() { _ = pub.Close() }()
		events = pub
	}
	if cfg.Events.Consumer {
		consumer := queue.NewAuditConsumer(cfg.Events.URL, cfg.Events.Queue, logger.With("component", "audit-consumer"))
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(ctx, "audit consumer stopped", "error", err)
			}
		}()
	}

	deps := service.Deps{Store: store, Events: events, Log: logger}
	users := service.NewUserService(deps, cfg.BcryptCost, cfg.JWTSecret, cfg.AccessTTLMin)
	comments := service.NewCommentService(deps)

	e := router.New(router.Handlers{
		Users:       handler.NewUserHandler(users),
		Assignments: handler.NewAssignmentHandler(service.NewAssignmentService(deps), comments),
		Weeks:       handler.NewWeekHandler(service.NewWeekService(deps), comments),
		Resources:   handler.NewResourceHandler(service.NewResourceService(deps), comments),
		Auth:        handler.NewAuthHandler(users),
	}, router.Options{Config: cfg, Log: logger, Redis: rdb})

	addr := ":" + cfg.Port
	go func() {
		logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		logger.Error(sctx, "graceful shutdown failed", "error", err)
	}
}

// openStore picks the persistence backend named by STORE_DRIVER.
func openStore(cfg config.Config) (repository.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		return memory.New(), func() {}, nil
	case config.StoreMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return repository.Store{}, nil, err
		}
		return repository.NewMySQLStore(db), func() { _ = db.Close() }, nil
	}
	return repository.Store{}, nil, errors.New("unknown STORE_DRIVER " + cfg.StoreDriver)
}
