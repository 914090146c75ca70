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

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/eunhae2004/MakeFinalProject-main/internal/config"
	"github.com/eunhae2004/MakeFinalProject-main/internal/database"
	"github.com/eunhae2004/MakeFinalProject-main/internal/logger"
	"github.com/eunhae2004/MakeFinalProject-main/internal/media"
	"github.com/eunhae2004/MakeFinalProject-main/internal/metrics"
	"github.com/eunhae2004/MakeFinalProject-main/internal/queue"
	"github.com/eunhae2004/MakeFinalProject-main/internal/repository"
	"github.com/eunhae2004/MakeFinalProject-main/internal/repository/memory"
	"github.com/eunhae2004/MakeFinalProject-main/internal/router"
	"github.com/eunhae2004/MakeFinalProject-main/internal/service"
	"github.com/eunhae2004/MakeFinalProject-main/internal/token"
	"github.com/eunhae2004/MakeFinalProject-main/internal/weather"
)

// purgeInterval is how often expired revocation rows are dropped.
const purgeInterval = time.Hour

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the HTTP API",
		Action: serve,
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "Apply pending schema migrations and exit",
		Action: migrate,
	}
}

func consumeCommand() *cli.Command {
	return &cli.Command{
		Name:   "consume",
		Usage:  "Append published domain events to the activity log",
		Action: consume,
	}
}

// setup loads configuration and builds the process logger. Signals cancel
// the returned context.
func setup(c *cli.Context) (context.Context, context.CancelFunc, *config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	return ctx, stop, cfg, log, nil
}

// revoker is a revocation store that can also drop expired entries.
type revoker interface {
	token.RevocationStore
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type backend struct {
	stores      service.Stores
	revocations token.RevocationStore
	purger      revoker
	db          *sqlx.DB
}

func (b *backend) Close() {
	if b.db != nil {
		_ = b.db.Close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config, rdb *redis.Client, log zerolog.Logger) (*backend, error) {
	if cfg.DB.Driver == "memory" {
		st := memory.New()
		b := &backend{
			stores: service.Stores{
				Users:       st.Users(),
				Preferences: st.Preferences(),
				Plants:      st.Plants(),
				Humidity:    st.Humidity(),
				Diaries:     st.Diaries(),
				Images:      st.Images(),
				Wiki:        st.Wiki(),
			},
			purger: st.Revocations(),
		}
		b.revocations = b.purger
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return b.withRedisRevocations(cfg, rdb, log), nil
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Migrate {
		applied, err := database.Migrate(ctx, db)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info().Strs("applied", applied).Msg("migrations done")
	}
	b := &backend{
		stores: service.Stores{
			Users:       repository.NewUserRepo(db),
			Preferences: repository.NewPreferencesRepo(db),
			Plants:      repository.NewPlantRepo(db),
			Humidity:    repository.NewHumidityRepo(db),
			Diaries:     repository.NewDiaryRepo(db),
			Images:      repository.NewImageRepo(db),
			Wiki:        repository.NewWikiRepo(db),
		},
		purger: repository.NewRevocationRepo(db),
		db:     db,
	}
	b.revocations = b.purger
	return b.withRedisRevocations(cfg, rdb, log), nil
}

func (b *backend) withRedisRevocations(cfg *config.Config, rdb *redis.Client, log zerolog.Logger) *backend {
	if cfg.RevocationBackend != "redis" {
		return b
	}
	if rdb == nil {
		log.Warn().Msg("REVOCATION_BACKEND=redis but redis is unreachable; keeping revocations in the store")
		return b
	}
	// Redis keys expire on their own.
	b.revocations = repository.NewRedisRevocations(rdb, "pland:revoked")
	b.purger = nil
	return b
}

func serve(c *cli.Context) error {
	ctx, stop, cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	defer stop()

	m := metrics.New()
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn().Str("addr", cfg.Redis.Address()).Msg("redis unreachable; rate limiting is per-process and caching is off")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	be, err := openBackend(ctx, cfg, rdb, log)
	if err != nil {
		return err
	}
	defer be.Close()

	tokens, err := token.New(token.Options{
		Secret:     cfg.JWT.Secret,
		Algorithm:  cfg.JWT.Algorithm,
		AccessTTL:  cfg.JWT.AccessTTL(),
		RefreshTTL: cfg.JWT.RefreshTTL(),
		Recorder:   m,
	}, be.revocations)
	if err != nil {
		return err
	}

	var events service.EventPublisher = queue.Discard{}
	if cfg.Events.Enabled {
		pub := queue.NewPublisher(cfg.Events.URL, cfg.Events.Exchange, log, m)
		defer func() { _ = pub.Close() }()
		events = pub
	}

	svcs := service.New(service.Options{
		Deps:       service.Deps{Log: log, Events: events},
		Stores:     be.stores,
		Tokens:     tokens,
		Files:      media.NewStore(cfg.Media.Root, cfg.Media.URL, cfg.Media.MaxUploadBytes()),
		Weather:    weather.NewStub(time.Now().UnixNano()),
		Uploads:    m,
		BcryptCost: cfg.BcryptCost,
	})

	deps := router.Deps{
		Config:   cfg,
		Log:      log,
		Services: svcs,
		Tokens:   tokens,
		Metrics:  m,
		Redis:    rdb,
	}
	if be.db != nil {
		deps.DB = be.db
	}
	e := router.New(deps)

	if be.purger != nil {
		go purgeRevocations(ctx, be.purger, log)
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("db", cfg.DB.Driver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func purgeRevocations(ctx context.Context, store revoker, log zerolog.Logger) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := store.PurgeExpired(ctx, now)
			if err != nil {
				log.Warn().Err(err).Msg("purge revoked tokens")
				continue
			}
			if n > 0 {
				log.Debug().Int64("rows", n).Msg("purged expired revocations")
			}
		}
	}
}

func migrate(c *cli.Context) error {
	ctx, stop, cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	defer stop()
	if cfg.DB.Driver == "memory" {
		return errors.New("migrate needs DB_DRIVER mysql or sqlite3")
	}
	db, err := database.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		return err
	}
	log.Info().Strs("applied", applied).Msg("migrations done")
	return nil
}

func consume(c *cli.Context) error {
	ctx, stop, cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	defer stop()
	consumer := &queue.ActivityConsumer{
		URL:      cfg.Events.URL,
		Exchange: cfg.Events.Exchange,
		Queue:    cfg.Events.Queue,
		LogDir:   cfg.Events.ActivityLogDir,
		Log:      log,
	}
	return consumer.Run(ctx)
}
