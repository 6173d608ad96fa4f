//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"homelink-backend/application/services"
	"homelink-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideDeviceRepository,
	ProvideEventPublisher,
	ProvideCollector,
	ProvideMetrics,
	ProvideTracer,
	ProvideFactory,
	services.NewDeviceService,
	ProvideErrorHandler,
	ProvideJWTValidator,
	ProvideAuthenticator,
	ProvideDeviceHandler,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil
}
