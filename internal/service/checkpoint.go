package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/repo"
	"github.com/DevRickLin/telegram-relay-bridge/internal/metrics"
)

// Checkpointer saves settings periodically and once more at shutdown
type Checkpointer struct {
	settings     *domain.Settings
	settingsRepo repo.SettingsRepo
	clock        clockwork.Clock
	logger       *slog.Logger

	interval time.Duration

	mu       sync.Mutex
	savedRev uint64
	running  bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCheckpointer creates a new checkpointer. An interval of 0 disables the
// periodic save; Flush still works.
func NewCheckpointer(
	settings *domain.Settings,
	settingsRepo repo.SettingsRepo,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Checkpointer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Checkpointer{
		settings:     settings,
		settingsRepo: settingsRepo,
		clock:        clock,
		logger:       logger.With("component", "checkpoint"),
		interval:     interval,
		savedRev:     settings.Revision(),
	}
}

// Start starts the periodic save loop
func (c *Checkpointer) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.interval <= 0 {
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.wg.Add(1)
	go c.loop(c.stopCh)
	c.logger.Info("started", "interval", c.interval)
}

// Stop stops the periodic save loop without saving
func (c *Checkpointer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Info("stopped")
}

func (c *Checkpointer) loop(stopCh chan struct{}) {
	defer c.wg.Done()

	ticker := c.clock.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			if _, err := c.SaveIfChanged(context.Background()); err != nil {
				c.logger.Error("periodic save failed", "error", err)
			}
		case <-stopCh:
			return
		}
	}
}

// SaveIfChanged saves when the settings changed since the last save.
// It reports whether a save happened.
func (c *Checkpointer) SaveIfChanged(ctx context.Context) (bool, error) {
	if c.settings.Revision() == c.lastSaved() {
		return false, nil
	}
	return true, c.save(ctx)
}

// Flush saves unconditionally; used at graceful shutdown
func (c *Checkpointer) Flush(ctx context.Context) error {
	return c.save(ctx)
}

func (c *Checkpointer) lastSaved() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.savedRev
}

func (c *Checkpointer) save(ctx context.Context) error {
	rev := c.settings.Revision()
	snap := c.settings.Snapshot()
	metrics.ObserveSettings(len(snap.Users), len(snap.Channels), len(snap.Messages))

	if err := c.settingsRepo.Save(ctx, snap); err != nil {
		metrics.SettingsSavesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("save settings: %w", err)
	}
	metrics.SettingsSavesTotal.WithLabelValues("ok").Inc()

	c.mu.Lock()
	c.savedRev = rev
	c.mu.Unlock()

	c.logger.Debug("settings saved",
		"revision", rev, "users", len(snap.Users), "channels", len(snap.Channels), "messages", len(snap.Messages))
	return nil
}
