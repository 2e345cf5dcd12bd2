package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/DevRickLin/telegram-relay-bridge/cmd/relay/internal"
	"github.com/DevRickLin/telegram-relay-bridge/internal/conf"
	"github.com/DevRickLin/telegram-relay-bridge/internal/data"
)

type migrateOptions struct {
	Backend string
	Path    string
}

func loadStorageConfig() (conf.SettingsConfig, error) {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return conf.SettingsConfig{}, fmt.Errorf("error loading config: %w", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return conf.SettingsConfig{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg.Settings, nil
}

func showSettings(ctx context.Context, cfg conf.SettingsConfig, out io.Writer) error {
	r, err := data.NewSettingsRepo(cfg.Backend, cfg.Path)
	if err != nil {
		return err
	}
	defer r.Close()

	snap, err := r.Load(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func migrateSettings(ctx context.Context, cfg conf.SettingsConfig, opts migrateOptions, out io.Writer) error {
	if opts.Backend == cfg.Backend && opts.Path == cfg.Path {
		return fmt.Errorf("source and target are the same store")
	}

	src, err := data.NewSettingsRepo(cfg.Backend, cfg.Path)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	dst, err := data.NewSettingsRepo(opts.Backend, opts.Path)
	if err != nil {
		return fmt.Errorf("open target: %w", err)
	}
	defer dst.Close()

	snap, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load source: %w", err)
	}
	if err := dst.Save(ctx, snap); err != nil {
		return fmt.Errorf("save target: %w", err)
	}

	fmt.Fprintf(out, "Migrated %d users, %d channels, %d messages from %s (%s) to %s (%s)\n",
		len(snap.Users), len(snap.Channels), len(snap.Messages),
		cfg.Path, cfg.Backend, opts.Path, opts.Backend)
	return nil
}
