package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/repo"
)

// jsonSettingsRepo implements the settings repository on a single JSON document
type jsonSettingsRepo struct {
	path string
}

// NewJSONSettingsRepo creates a new JSON settings repository
func NewJSONSettingsRepo(path string) (repo.SettingsRepo, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}
	return &jsonSettingsRepo{path: path}, nil
}

// Load reads the document. A missing file is an empty snapshot.
func (r *jsonSettingsRepo) Load(ctx context.Context) (*domain.Snapshot, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	snap := domain.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", r.path, err)
	}
	// keys absent from the document decode as nil maps
	return domain.NewSettings(snap, 0).Snapshot(), nil
}

// Save writes a temp file next to the document and renames it into place
func (r *jsonSettingsRepo) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close settings: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}

// Close is a no-op; the file is only open during Load and Save
func (r *jsonSettingsRepo) Close() error {
	return nil
}
