// Package di wires the API's dependencies together.
package di

import (
	"net/http"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cursor-todo/internal/config"
	"cursor-todo/internal/infrastructure/messaging"
	"cursor-todo/internal/infrastructure/observability"
	"cursor-todo/internal/infrastructure/persistence"
	"cursor-todo/internal/service/todo"
)

// Container holds the fully wired application.
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	LogLevel       zap.AtomicLevel
	TracerProvider *observability.TracerProvider
	Collector      *observability.Collector
	Repository     persistence.Repository
	TodoService    todo.Service
	Publisher      messaging.Publisher
	Router         http.Handler
}

// ApplyConfig reacts to a reloaded configuration. Only the log level is
// applied live; everything else needs a restart.
func (c *Container) ApplyConfig(cfg *config.Config) {
	var level zapcore.Level
	if err := level.Set(cfg.Logging.Level); err != nil {
		c.Logger.Warn("ignoring invalid log level", zap.String("level", cfg.Logging.Level))
		return
	}
	if level != c.LogLevel.Level() {
		c.LogLevel.SetLevel(level)
		c.Logger.Info("log level changed", zap.Stringer("level", level))
	}
}
