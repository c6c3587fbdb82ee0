package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"curriculum-service/internal/app"
	"curriculum-service/internal/auth"
	"curriculum-service/internal/config"
	"curriculum-service/internal/infra/memory"
	"curriculum-service/internal/infra/postgres"
	infraredis "curriculum-service/internal/infra/redis"
	"curriculum-service/internal/logging"
	"curriculum-service/internal/metrics"
	transport "curriculum-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the curriculum server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
}

type stores struct {
	curricula app.CurriculumStore
	progress  app.ProgressStore
	cache     app.CurriculumRepository
	close     func()
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	m := metrics.New()
	curricula := app.NewCurriculumService(st.curricula, st.cache, logger, m)
	progress := app.NewProgressService(st.progress, st.cache, logger, m)
	authn := auth.NewAuthenticator(cfg.Auth.JWTSecret)
	debounce := config.TTLDuration(cfg.Progress.Debounce, 2*time.Second)
	api := transport.NewServer(curricula, progress, authn, logger, m, debounce)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting curriculum service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStores picks Postgres when configured and falls back to memory. Redis,
// when configured, caches curricula and holds progress if Postgres is absent.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stores, error) {
	var closers []func()
	st := &stores{}
	st.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { _ = redisClient.Close() })
	}

	if cfg.Postgres.URL != "" {
		db := openBun(cfg.Postgres.URL)
		closers = append(closers, func() { _ = db.Close() })
		if err := runMigrations(ctx, db, logger); err != nil {
			st.close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			st.close()
			return nil, err
		}
		closers = append(closers, pool.Close)
		st.curricula = postgres.NewCurriculumStore(db)
		st.progress = postgres.NewProgressStore(pool)
		logger.Info("using postgres storage")
	} else {
		mem := memory.NewCurriculumStore()
		if err := seedDemoCourse(ctx, mem); err != nil {
			return nil, err
		}
		st.curricula = mem
		if redisClient != nil {
			st.progress = infraredis.NewProgressStore(redisClient)
			logger.Info("using in-memory curriculum storage with redis progress")
		} else {
			st.progress = memory.NewProgressStore()
			logger.Warn("using in-memory storage; data is lost on restart")
		}
	}

	ttl := config.TTLDuration(cfg.Curriculum.CacheTTL, 10*time.Minute)
	if redisClient != nil {
		st.cache = infraredis.NewCurriculumCache(redisClient, st.curricula, ttl, logger)
	} else {
		st.cache = memory.NewCurriculumCache(st.curricula, ttl)
	}
	return st, nil
}
