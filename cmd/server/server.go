package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/irsalhamdi/e-learning/api"
	"github.com/irsalhamdi/e-learning/config"
	"github.com/irsalhamdi/e-learning/database"
	"github.com/irsalhamdi/e-learning/rate"
	"github.com/irsalhamdi/e-learning/storage"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return
		}
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	// A missing .env is fine: the environment and flags still apply.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	const prefix = "ELEARN"
	var cfg config.Config
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return err
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	logger.Infof("config:\n%s", out)

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.Storage.Seed {
		if err := storage.Seed(ctx, store, logger); err != nil {
			return fmt.Errorf("seeding store: %w", err)
		}
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime
	sessionManager.Cookie.Secure = cfg.Session.SecureCookie
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode

	limiter := rate.NewLimiter(cfg.Auth.Login)
	go limiter.Run(ctx, time.Minute)

	mux := api.APIMux(api.APIConfig{
		CorsOrigin:   cfg.Cors.Origin,
		Log:          logger,
		Store:        store,
		Session:      sessionManager,
		LoginLimiter: limiter,
	})

	srv := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}
	return nil
}

// openStore builds the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (storage.Storage, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		logger.Info("using in-memory storage")
		return storage.NewMemory(), func() {}, nil

	case config.BackendPostgres:
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := database.StatusCheck(pingCtx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("checking db status: %w", err)
		}

		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrating db: %w", err)
		}

		logger.Infof("using postgres storage at %s/%s", cfg.DB.Host, cfg.DB.Name)
		return storage.NewPostgres(db), func() { db.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
