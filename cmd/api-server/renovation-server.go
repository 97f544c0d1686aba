package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/mingunC/renovationPlatform-sub000/config"
	"github.com/mingunC/renovationPlatform-sub000/db"
	"github.com/mingunC/renovationPlatform-sub000/db/migrations"
	"github.com/mingunC/renovationPlatform-sub000/internal/handlers"
	"github.com/mingunC/renovationPlatform-sub000/internal/marketplace"
	"github.com/mingunC/renovationPlatform-sub000/internal/memstore"
	"github.com/mingunC/renovationPlatform-sub000/internal/notify"
	"github.com/mingunC/renovationPlatform-sub000/pkg/logger"
)

// backend is everything the server needs from a store.
type backend interface {
	marketplace.Store
	notify.Directory
	handlers.AccountStore
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}
	logger.Init(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error(ctx, "server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	store, closeStore, err := openBackend(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closeStore()

	var sender notify.Sender = notify.LogSender{}
	if cfg.Notify.SMTP.Host != "" {
		sender = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.Notify.SMTP.Host,
			Port:     cfg.Notify.SMTP.Port,
			Username: cfg.Notify.SMTP.Username,
			Password: cfg.Notify.SMTP.Password,
			From:     cfg.Notify.SMTP.From,
		})
	}
	dispatcher := notify.NewDispatcher(notify.Config{
		Workers:     cfg.Notify.Workers,
		QueueSize:   cfg.Notify.QueueSize,
		MaxRetries:  cfg.Notify.MaxRetries,
		BaseBackoff: cfg.Notify.BaseBackoff,
	}, store, sender)

	svc := marketplace.NewService(store, dispatcher, marketplace.Config{
		AllowEarlySelection:       cfg.Marketplace.AllowEarlySelection,
		RevertOnZeroInterest:      cfg.Marketplace.RevertOnZeroInterest,
		RequireInspectionInterest: cfg.Marketplace.RequireInspectionInterest,
		DefaultBiddingWindow:      cfg.Marketplace.DefaultBiddingWindow,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handlers.NewRouter(handlers.NewHandler(svc, store), []byte(cfg.Auth.JWTSecret)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx)
	})
	g.Go(func() error {
		return svc.RunExpirySweeper(gctx, cfg.Sweeper.Interval)
	})
	g.Go(func() error {
		logger.Info(gctx, "starting server", "addr", cfg.Server.Address, "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info(ctx, "server stopped", "dropped_notifications", dispatcher.Dropped(), "delivered_notifications", dispatcher.Delivered())
	return err
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig) (backend, func(), error) {
	if cfg.Driver == "memory" {
		logger.Warn(ctx, "using in-memory store; data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	dbConn, err := db.Connect(ctx, cfg.Conn, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Migrate {
		if err := migrations.Run(dbConn.DB); err != nil {
			dbConn.Close()
			return nil, nil, err
		}
	}
	return db.NewStorage(dbConn), func() { dbConn.Close() }, nil
}
