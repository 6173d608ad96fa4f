package dynamodb

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"homelink-backend/application/ports"
	"homelink-backend/domain/device"
	apperrors "homelink-backend/pkg/errors"
)

// BreakerSettings configures the store circuit breaker
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// BreakingRepository trips after consecutive store failures and then fails
// fast until the timeout elapses. Caller errors such as not-found never count.
type BreakingRepository struct {
	next   ports.DeviceRepository
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewBreakingRepository wraps next with a circuit breaker
func NewBreakingRepository(next ports.DeviceRepository, settings BreakerSettings, logger *zap.Logger) *BreakingRepository {
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        settings.Name,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || apperrors.IsValidation(err)
		},
	})

	return &BreakingRepository{next: next, cb: cb, logger: logger}
}

var _ ports.DeviceRepository = (*BreakingRepository)(nil)

// State exposes the breaker state
func (b *BreakingRepository) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakingRepository) execute(operation string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return nil, apperrors.NewStoreError(operation, err)
	}
	return result, err
}

func (b *BreakingRepository) Get(ctx context.Context, ownerID, deviceID string) (device.Device, error) {
	result, err := b.execute("GetItem", func() (interface{}, error) {
		return b.next.Get(ctx, ownerID, deviceID)
	})
	if err != nil {
		return nil, err
	}
	return result.(device.Device), nil
}

func (b *BreakingRepository) PutIfAbsent(ctx context.Context, dev device.Device) error {
	_, err := b.execute("PutItem", func() (interface{}, error) {
		return nil, b.next.PutIfAbsent(ctx, dev)
	})
	return err
}

func (b *BreakingRepository) Update(ctx context.Context, ownerID, deviceID string, mutation device.Mutation) error {
	_, err := b.execute("UpdateItem", func() (interface{}, error) {
		return nil, b.next.Update(ctx, ownerID, deviceID, mutation)
	})
	return err
}

func (b *BreakingRepository) Delete(ctx context.Context, ownerID, deviceID string) (device.Device, error) {
	result, err := b.execute("DeleteItem", func() (interface{}, error) {
		return b.next.Delete(ctx, ownerID, deviceID)
	})
	if err != nil {
		return nil, err
	}
	return result.(device.Device), nil
}

func (b *BreakingRepository) ListByOwner(ctx context.Context, ownerID string) ([]device.Device, error) {
	result, err := b.execute("Query", func() (interface{}, error) {
		return b.next.ListByOwner(ctx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return result.([]device.Device), nil
}
