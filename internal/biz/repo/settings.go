package repo

import (
	"context"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
)

// SettingsRepo is the settings repository interface
// Responsible for loading and saving the whole settings document
type SettingsRepo interface {
	// Load reads the stored settings; a missing store yields an empty snapshot
	Load(ctx context.Context) (*domain.Snapshot, error)

	// Save overwrites the stored settings with snap
	Save(ctx context.Context, snap *domain.Snapshot) error

	// Close releases the underlying store
	Close() error
}
