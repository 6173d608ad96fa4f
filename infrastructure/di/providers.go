package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"homelink-backend/application/ports"
	"homelink-backend/application/services"
	"homelink-backend/domain/device"
	"homelink-backend/infrastructure/config"
	"homelink-backend/infrastructure/messaging/eventbridge"
	"homelink-backend/infrastructure/persistence/dynamodb"
	"homelink-backend/infrastructure/persistence/memory"
	"homelink-backend/interfaces/http/rest"
	"homelink-backend/interfaces/http/rest/handlers"
	"homelink-backend/interfaces/http/rest/middleware"
	"homelink-backend/pkg/auth"
	apperrors "homelink-backend/pkg/errors"
	"homelink-backend/pkg/observability"
)

const serviceName = "homelink-devices"

// ProvideLogLevel creates the logger's level. It is shared so a config
// reload can change verbosity without rebuilding the logger.
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsDevelopment() && !cfg.IsLambda {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(
		zap.String("service", serviceName),
		zap.String("environment", cfg.Environment),
	), nil
}

// ProvideAWSConfig creates AWS configuration, instrumented for X-Ray when
// tracing is enabled
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if cfg.EnableTracing {
		observability.InstrumentAWS(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at a local
// endpoint when one is configured
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideDeviceRepository selects the store backend and wraps DynamoDB in
// the circuit breaker when enabled
func ProvideDeviceRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.DeviceRepository {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Warn("Using in-memory device store")
		return memory.NewDeviceRepository()
	}

	var repo ports.DeviceRepository = dynamodb.NewDeviceRepository(client, cfg.DevicesTable, logger)
	if !cfg.Breaker.Enabled {
		return repo
	}

	return dynamodb.NewBreakingRepository(repo, dynamodb.BreakerSettings{
		Name:             cfg.DevicesTable,
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
	}, logger)
}

// ProvideEventPublisher creates the EventBridge publisher, or a no-op one
// when no bus is configured
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventBusName == "" {
		logger.Info("No event bus configured, device events are discarded")
		return eventbridge.NoopPublisher{}
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, cfg.EventSource, logger)
}

// ProvideCollector creates the Prometheus collector
func ProvideCollector() *observability.Collector {
	return observability.NewCollector("homelink")
}

// ProvideMetrics fans operation metrics out to Prometheus and, when
// enabled, CloudWatch
func ProvideMetrics(client *awscloudwatch.Client, collector *observability.Collector, cfg *config.Config, logger *zap.Logger) ports.Metrics {
	recorders := observability.MultiRecorder{collector}
	if cfg.EnableMetrics {
		namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
		recorders = append(recorders, observability.NewMetrics(namespace, client, logger))
	}
	return recorders
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideFactory creates the device factory
func ProvideFactory() *device.Factory {
	return device.NewFactory()
}

// ProvideErrorHandler creates the error formatter, redacting internal
// detail in protected stages
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *apperrors.ErrorHandler {
	return apperrors.NewErrorHandler(logger, cfg.IsProtected())
}

// ProvideJWTValidator creates the bearer token validator for local
// deployments. Behind API Gateway no validator is needed.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.IsLambda {
		return nil, nil
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required outside Lambda")
	}
	return auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)
}

// ProvideAuthenticator creates the identity middleware
func ProvideAuthenticator(
	validator *auth.JWTValidator,
	cfg *config.Config,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *middleware.Authenticator {
	return middleware.NewAuthenticator(validator, cfg.IsLambda, errorHandler, logger)
}

// ProvideDeviceHandler creates the device HTTP handler
func ProvideDeviceHandler(
	service *services.DeviceService,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *handlers.DeviceHandler {
	return handlers.NewDeviceHandler(service, errorHandler, logger)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	deviceHandler *handlers.DeviceHandler,
	authenticator *middleware.Authenticator,
	errorHandler *apperrors.ErrorHandler,
	collector *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(
		deviceHandler,
		authenticator,
		errorHandler,
		collector,
		rest.CORSOptions{Enabled: cfg.EnableCORS, AllowedOrigins: cfg.AllowedOrigins},
		logger,
	)
}
