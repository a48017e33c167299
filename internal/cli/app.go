package cli

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/parisxmas/OxiEnroll/internal/config"
	"github.com/parisxmas/OxiEnroll/internal/db"
	"github.com/parisxmas/OxiEnroll/internal/logging"
	"github.com/parisxmas/OxiEnroll/internal/repository"
	"github.com/parisxmas/OxiEnroll/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// app is the wiring shared by every command: settings, logger, store and
// repositories.
type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store db.Store

	configRepo *repository.ConfigRepo
	subRepo    *repository.SubmissionRepo
	userRepo   *repository.UserRepo
	uploadRepo *repository.UploadRepo
}

func openApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.GelfAddr)
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return &app{
		cfg:        cfg,
		log:        log,
		store:      store,
		configRepo: repository.NewConfigRepo(store),
		subRepo:    repository.NewSubmissionRepo(store),
		userRepo:   repository.NewUserRepo(store),
		uploadRepo: repository.NewUploadRepo(store),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (db.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		s, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("store: sqlite opened", zap.String("path", cfg.SQLitePath))
		return s, nil
	case config.StoreOxiDB:
		p, err := db.NewPool(ctx, cfg.OxiDBHost, cfg.OxiDBPort, cfg.PoolSize, log)
		if err != nil {
			return nil, fmt.Errorf("connect to oxidb: %w", err)
		}
		log.Info("store: connected to oxidb",
			zap.String("addr", net.JoinHostPort(cfg.OxiDBHost, strconv.Itoa(cfg.OxiDBPort))),
			zap.Int("pool_size", cfg.PoolSize),
		)
		return p, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Store)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("store: close failed", zap.Error(err))
	}
	a.log.Sync()
}

// ensureIndexes creates every collection index and the blob bucket
// concurrently.
func (a *app) ensureIndexes(ctx context.Context) error {
	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for name, ensure := range map[string]func(context.Context) error{
		"config":      a.configRepo.EnsureIndexes,
		"submissions": a.subRepo.EnsureIndexes,
		"users":       a.userRepo.EnsureIndexes,
		"uploads":     a.uploadRepo.EnsureIndexes,
	} {
		g.Go(func() error {
			if err := ensure(gctx); err != nil {
				return fmt.Errorf("%s indexes: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	a.log.Info("init: indexes ready", zap.Duration("took", time.Since(start).Round(time.Millisecond)))
	return nil
}

func (a *app) authService() *service.AuthService {
	return service.NewAuthService(a.userRepo, a.cfg.JWTSecret, a.cfg.TokenTTL, a.log)
}
