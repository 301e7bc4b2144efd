package di

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/wire"
)

// ObservabilityProviders provides logging, tracing and metrics.
var ObservabilityProviders = wire.NewSet(
	provideAtomicLevel,
	provideLogger,
	provideTracerProvider,
	provideCollector,
)

// InfrastructureProviders provides storage and event forwarding.
var InfrastructureProviders = wire.NewSet(
	provideRepository,
	providePublisher,
)

// ApplicationProviders provides the use cases.
var ApplicationProviders = wire.NewSet(
	provideTodoService,
)

// InterfaceProviders provides handlers and the router.
var InterfaceProviders = wire.NewSet(
	provideTodoHandler,
	provideSystemHandler,
	SetupRouter,
	wire.Bind(new(http.Handler), new(*chi.Mux)),
)

// SuperSet combines all provider sets for the complete application.
var SuperSet = wire.NewSet(
	ObservabilityProviders,
	InfrastructureProviders,
	ApplicationProviders,
	InterfaceProviders,
	wire.Struct(new(Container), "*"),
)
