//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"cursor-todo/internal/config"
)

// InitializeContainer creates a fully wired container. The cleanup function
// releases resources in reverse order of construction.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
