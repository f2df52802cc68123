package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"inventory/internal/config"
	"inventory/internal/inventory"
	"inventory/pkg/kit"
)

const service = "inventoryd"

func main() {
	fs := config.Flags(service)
	mint := fs.String("mint-token", "", "print an API token for this subject and exit")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(".", fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log := kit.MustLogger(service, cfg.Env)
	defer func() { _ = log.Sync() }()

	if *mint != "" {
		if err := mintToken(cfg, *mint); err != nil {
			log.Fatal("mint token", zap.Error(err))
		}
		return
	}

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal("inventoryd stopped", zap.Error(err))
	}
}

func mintToken(cfg *config.Config, subject string) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	tok, err := kit.NewTokenMaker(cfg.Auth.JWTSecret).New(subject, "inventory:write", cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	snap, closeSnap, err := inventory.OpenSnapshot(ctx, cfg.Inventory.Backend, cfg.Inventory.File, cfg.Inventory.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = closeSnap() }()

	store, err := snap.Load(ctx)
	switch {
	case errors.Is(err, inventory.ErrCorruptData):
		log.Warn("inventory data unreadable, starting empty", zap.Error(err))
	case err != nil:
		return err
	}
	log.Info("inventory loaded", zap.String("backend", cfg.Inventory.Backend), zap.Int("products", store.Len()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	metrics := inventory.NewMetrics(reg)
	metrics.Observe("load", "ok", store)

	s := &inventory.Server{
		Store:    store,
		Snapshot: snap,
		Metrics:  metrics,
		Log:      log,
		Autosave: cfg.Server.Autosave,
	}

	deps := inventory.HTTPDeps{
		Log:              log,
		Service:          service,
		Registry:         reg,
		MetricsEnabled:   cfg.Metrics.Enabled,
		MetricsToken:     cfg.Metrics.Token,
		WriteLimitPerMin: cfg.Server.WriteLimitPerMin,
	}
	if cfg.Auth.JWTSecret != "" {
		deps.Tokens = kit.NewTokenMaker(cfg.Auth.JWTSecret)
	} else {
		log.Warn("JWT_SECRET not set, write routes are unauthenticated")
	}

	serveErr := kit.RunHTTPServer(ctx, kit.ServerOptions{
		Addr:              ":" + cfg.Server.Port,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
	}, inventory.NewHandler(s, deps), log)

	if err := s.Flush(context.Background()); err != nil {
		return errors.Join(serveErr, err)
	}
	log.Info("inventory saved", zap.Int("products", store.Len()))
	return serveErr
}
