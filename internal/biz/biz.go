package biz

import (
	"log/slog"

	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/domain"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/repo"
	"github.com/DevRickLin/telegram-relay-bridge/internal/biz/usecase"
)

// Usecases contains all usecases
type Usecases struct {
	Router *usecase.RouterUsecase
}

// NewUsecases wires the usecases over the loaded settings
func NewUsecases(settings *domain.Settings, transport repo.Transport, routerCfg usecase.RouterConfig, logger *slog.Logger) *Usecases {
	return &Usecases{
		Router: usecase.NewRouterUsecase(settings, transport, routerCfg, logger),
	}
}
