package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"inventory/internal/config"
	"inventory/internal/console"
	"inventory/internal/inventory"
	"inventory/pkg/kit"
)

func main() {
	fs := config.Flags("inventory")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Load(".", fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// stdout belongs to the menu.
	log := kit.MustLogger("inventory", cfg.Env, "stderr")
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal("inventory session failed", zap.Error(err))
	}
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
		log.Warn("inventory data unreadable, starting empty; the file is left as is until the next save",
			zap.String("backend", cfg.Inventory.Backend), zap.Error(err))
	case err != nil:
		return err
	}

	log.Info("inventory loaded", zap.String("backend", cfg.Inventory.Backend), zap.Int("products", store.Len()))

	menu := console.New(os.Stdin, os.Stdout, store, func() error {
		return snap.Save(ctx, store)
	}, log)
	return menu.Run()
}
