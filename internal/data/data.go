package data

import (
	"fmt"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/repo"
	"github.com/DevRickLin/telegram-relay-bridge/internal/conf"
	"github.com/DevRickLin/telegram-relay-bridge/internal/infra/telegram"
)

// Repositories contains all repositories
type Repositories struct {
	Settings  repo.SettingsRepo
	Transport repo.Transport
}

// NewRepositories creates all repositories
func NewRepositories(telegramClient *telegram.Client, cfg conf.SettingsConfig) (*Repositories, error) {
	settingsRepo, err := NewSettingsRepo(cfg.Backend, cfg.Path)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Settings:  settingsRepo,
		Transport: NewTelegramRepo(telegramClient),
	}, nil
}

// NewSettingsRepo opens the settings store for the given backend
func NewSettingsRepo(backend, path string) (repo.SettingsRepo, error) {
	switch backend {
	case conf.BackendJSON, "":
		return NewJSONSettingsRepo(path)
	case conf.BackendSQLite:
		return NewSQLiteSettingsRepo(path)
	default:
		return nil, fmt.Errorf("unknown settings backend %q", backend)
	}
}
