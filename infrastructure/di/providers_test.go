package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"homelink-backend/infrastructure/config"
	"homelink-backend/infrastructure/messaging/eventbridge"
	"homelink-backend/infrastructure/persistence/dynamodb"
	"homelink-backend/infrastructure/persistence/memory"
	"homelink-backend/pkg/observability"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.StoreBackend = config.StoreMemory
	cfg.JWTSecret = "di-secret"
	return cfg
}

func TestProvideDeviceRepository(t *testing.T) {
	logger := zap.NewNop()

	cfg := testConfig()
	assert.IsType(t, &memory.DeviceRepository{}, ProvideDeviceRepository(nil, cfg, logger))

	cfg.StoreBackend = config.StoreDynamoDB
	assert.IsType(t, &dynamodb.BreakingRepository{}, ProvideDeviceRepository(nil, cfg, logger))

	cfg.Breaker.Enabled = false
	assert.IsType(t, &dynamodb.DeviceRepository{}, ProvideDeviceRepository(nil, cfg, logger))
}

func TestProvideEventPublisher(t *testing.T) {
	cfg := testConfig()
	assert.IsType(t, eventbridge.NoopPublisher{}, ProvideEventPublisher(nil, cfg, zap.NewNop()))

	cfg.EventBusName = "homelink-bus"
	assert.IsType(t, &eventbridge.Publisher{}, ProvideEventPublisher(nil, cfg, zap.NewNop()))
}

func TestProvideMetrics(t *testing.T) {
	collector := ProvideCollector()

	cfg := testConfig()
	cfg.EnableMetrics = false
	recorders, ok := ProvideMetrics(nil, collector, cfg, zap.NewNop()).(observability.MultiRecorder)
	require.True(t, ok)
	assert.Len(t, recorders, 1)

	cfg.EnableMetrics = true
	recorders, ok = ProvideMetrics(nil, collector, cfg, zap.NewNop()).(observability.MultiRecorder)
	require.True(t, ok)
	assert.Len(t, recorders, 2)
}

func TestProvideJWTValidator(t *testing.T) {
	cfg := testConfig()
	validator, err := ProvideJWTValidator(cfg)
	require.NoError(t, err)
	assert.NotNil(t, validator)

	cfg.JWTSecret = ""
	_, err = ProvideJWTValidator(cfg)
	assert.Error(t, err)

	cfg.IsLambda = true
	validator, err = ProvideJWTValidator(cfg)
	require.NoError(t, err)
	assert.Nil(t, validator)
}

func TestProvideLogger_RejectsUnknownLevel(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "loud"

	_, err := ProvideLogLevel(cfg)
	assert.Error(t, err)
}

func TestProvideLogger_LevelCanChangeAfterBuild(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "warn"

	level, err := ProvideLogLevel(cfg)
	require.NoError(t, err)
	logger, err := ProvideLogger(cfg, level)
	require.NoError(t, err)

	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	level.SetLevel(zapcore.DebugLevel)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestInitializeContainer_MemoryBackend(t *testing.T) {
	container, err := InitializeContainer(context.Background(), testConfig())
	require.NoError(t, err)
	defer container.Shutdown()

	assert.IsType(t, &memory.DeviceRepository{}, container.Repository)
	assert.Equal(t, zapcore.InfoLevel, container.LogLevel.Level())

	rec := httptest.NewRecorder()
	container.Router.Setup().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestContainer_ApplyReload(t *testing.T) {
	container, err := InitializeContainer(context.Background(), testConfig())
	require.NoError(t, err)
	defer container.Shutdown()
	handler := container.Router.Setup()

	reloaded := testConfig()
	reloaded.LogLevel = "debug"
	reloaded.AllowedOrigins = []string{"https://app.example.com"}
	container.ApplyReload(reloaded)

	assert.Equal(t, zapcore.DebugLevel, container.LogLevel.Level())

	req := httptest.NewRequest(http.MethodOptions, "/health", nil)
	req.Header.Set("Origin", "https://other.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
