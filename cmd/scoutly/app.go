package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"scoutly/internal/common/auth"
	"scoutly/internal/common/aws"
	"scoutly/internal/common/config"
	"scoutly/internal/common/database"
	apperrors "scoutly/internal/common/errors"
	"scoutly/internal/common/logger"
	"scoutly/internal/common/observability"
	"scoutly/internal/common/storage"
	"scoutly/internal/dashboard"
	"scoutly/internal/identity"
	"scoutly/internal/store"
	"scoutly/internal/submit/committer"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// app holds every wired dependency of one CLI invocation.
type app struct {
	cfg    *config.Config
	zap    *zap.Logger
	log    logger.Logger
	errs   *apperrors.ErrorHandler
	obs    *observability.Observability
	pg     *database.PostgresClient
	redis  *database.RedisClient
	server *http.Server

	identity  *identity.Service
	dashboard *dashboard.Service
	committer *committer.Committer
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"app": cfg.App.Name})

	a := &app{
		cfg:  cfg,
		zap:  zapLog,
		log:  log,
		errs: apperrors.NewErrorHandler(log),
	}

	if cfg.Metrics.Enabled {
		a.obs = observability.New(cfg.Metrics.ServiceName, log)
		if cfg.Metrics.Address != "" {
			a.serveMetrics(cfg.Metrics.Address)
		}
	}

	a.pg, err = database.ConnectPostgres(ctx, cfg.Database.Postgres, database.DefaultRetryPolicy, log)
	if err != nil {
		a.close()
		return nil, err
	}
	if err := a.pg.Migrate(ctx); err != nil {
		a.close()
		return nil, err
	}

	a.redis, err = database.ConnectRedis(ctx, cfg.Database.Redis, database.DefaultRetryPolicy, log)
	if err != nil {
		a.close()
		return nil, err
	}

	objects, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		a.close()
		return nil, err
	}

	var publisher committer.EventPublisher
	if cfg.Notifications.SNS.Enabled {
		sns, err := aws.NewSNSPublisher(ctx, cfg.Notifications.SNS.Region, cfg.Notifications.SNS.TopicARN, log)
		if err != nil {
			a.close()
			return nil, err
		}
		publisher = sns
	}

	kc := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
		config.GetDuration(cfg.Auth.Keycloak.Timeout),
	)

	submissions := store.NewSubmissionStore(a.pg.DB, log)
	profiles := store.NewProfileStore(a.pg.DB, log)

	a.identity = identity.NewService(kc,
		identity.NewSessionCache(a.redis.Client, time.Duration(cfg.Database.Redis.SessionTTL)*time.Second), log)
	a.dashboard = dashboard.NewService(submissions, store.NewEarningStore(a.pg.DB, log), profiles, log)
	a.committer = committer.NewCommitter(committer.LoadConfig(cfg), objects, submissions, publisher, a.obs, log)

	log.Debug("dependencies initialized", nil)
	return a, nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	a.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.log.Info("metrics endpoint listening", map[string]interface{}{"addr": addr})
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("metrics endpoint failed", map[string]interface{}{"error": err})
		}
	}()
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.server != nil {
		_ = a.server.Shutdown(ctx)
	}
	if a.obs != nil {
		_ = a.obs.Shutdown(ctx)
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	_ = a.zap.Sync()
}

// fail logs err for op and returns an error carrying the message shown to the
// scout.
func (a *app) fail(op string, err error) error {
	return errors.New(a.errs.Handle(op, err))
}
