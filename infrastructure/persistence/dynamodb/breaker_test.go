package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"homelink-backend/domain/device"
	apperrors "homelink-backend/pkg/errors"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Get(ctx context.Context, ownerID, deviceID string) (device.Device, error) {
	args := m.Called(ctx, ownerID, deviceID)
	dev, _ := args.Get(0).(device.Device)
	return dev, args.Error(1)
}

func (m *mockRepository) PutIfAbsent(ctx context.Context, dev device.Device) error {
	return m.Called(ctx, dev).Error(0)
}

func (m *mockRepository) Update(ctx context.Context, ownerID, deviceID string, mutation device.Mutation) error {
	return m.Called(ctx, ownerID, deviceID, mutation).Error(0)
}

func (m *mockRepository) Delete(ctx context.Context, ownerID, deviceID string) (device.Device, error) {
	args := m.Called(ctx, ownerID, deviceID)
	dev, _ := args.Get(0).(device.Device)
	return dev, args.Error(1)
}

func (m *mockRepository) ListByOwner(ctx context.Context, ownerID string) ([]device.Device, error) {
	args := m.Called(ctx, ownerID)
	devices, _ := args.Get(0).([]device.Device)
	return devices, args.Error(1)
}

func breakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "devices-test",
		MaxRequests:      1,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}
}

func TestBreakingRepository_TripsOnStoreFailures(t *testing.T) {
	next := new(mockRepository)
	next.On("Get", mock.Anything, "owner-1", "dev-1").
		Return(nil, apperrors.NewStoreError("GetItem", errors.New("timeout"))).Times(2)

	repo := NewBreakingRepository(next, breakerSettings(), zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := repo.Get(context.Background(), "owner-1", "dev-1")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, repo.State())

	_, err := repo.Get(context.Background(), "owner-1", "dev-1")
	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeStoreFailure, appErr.Code)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	next.AssertNumberOfCalls(t, "Get", 2)
}

func TestBreakingRepository_CallerErrorsDoNotTrip(t *testing.T) {
	next := new(mockRepository)
	next.On("Delete", mock.Anything, "owner-1", "missing").Return(nil, apperrors.NewNotFoundError())

	repo := NewBreakingRepository(next, breakerSettings(), zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := repo.Delete(context.Background(), "owner-1", "missing")
		assert.True(t, apperrors.IsNotFound(err))
	}
	assert.Equal(t, gobreaker.StateClosed, repo.State())
}

func TestBreakingRepository_PassesResultsThrough(t *testing.T) {
	dev := device.Device{"ownerId": "owner-1", "deviceId": "dev-1"}
	next := new(mockRepository)
	next.On("ListByOwner", mock.Anything, "owner-1").Return([]device.Device{dev}, nil)
	next.On("PutIfAbsent", mock.Anything, dev).Return(nil)
	next.On("Update", mock.Anything, "owner-1", "dev-1", mock.Anything).Return(nil)

	repo := NewBreakingRepository(next, breakerSettings(), zap.NewNop())

	devices, err := repo.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Equal(t, []device.Device{dev}, devices)
	assert.NoError(t, repo.PutIfAbsent(context.Background(), dev))
	assert.NoError(t, repo.Update(context.Background(), "owner-1", "dev-1", device.Mutation{}))
	next.AssertExpectations(t)
}
