package di

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"homelink-backend/application/ports"
	"homelink-backend/application/services"
	"homelink-backend/infrastructure/config"
	"homelink-backend/interfaces/http/rest"
	"homelink-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LogLevel   zap.AtomicLevel
	Repository ports.DeviceRepository
	Publisher  ports.EventPublisher
	Collector  *observability.Collector
	Service    *services.DeviceService
	Router     *rest.Router
}

// Shutdown flushes the logger
func (c *Container) Shutdown() {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
}

// ApplyReload updates the settings a running container can change in place:
// the log level and the CORS origins. The rest of cfg is ignored.
func (c *Container) ApplyReload(cfg *config.Config) {
	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		c.LogLevel.SetLevel(level)
	}
	if c.Router != nil {
		c.Router.SetAllowedOrigins(cfg.AllowedOrigins)
	}
}
