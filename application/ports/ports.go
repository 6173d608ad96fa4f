package ports

import (
	"context"
	"time"

	"homelink-backend/domain/device"
	"homelink-backend/domain/events"
)

// DeviceRepository defines the interface for device persistence.
// Every operation is scoped to one owner.
type DeviceRepository interface {
	// Get returns the device or an ITEM_NOT_FOUND error
	Get(ctx context.Context, ownerID, deviceID string) (device.Device, error)

	// PutIfAbsent stores a new device, failing with ITEM_ALREADY_EXISTS on an id collision
	PutIfAbsent(ctx context.Context, dev device.Device) error

	// Update applies the mutation to an existing device, failing with
	// ITEM_NOT_FOUND when the device no longer exists
	Update(ctx context.Context, ownerID, deviceID string, mutation device.Mutation) error

	// Delete removes the device and returns it, or fails with ITEM_NOT_FOUND
	Delete(ctx context.Context, ownerID, deviceID string) (device.Device, error)

	// ListByOwner returns every device registered by the owner
	ListByOwner(ctx context.Context, ownerID string) ([]device.Device, error)
}

// EventPublisher publishes device lifecycle events
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
	PublishBatch(ctx context.Context, domainEvents []events.DomainEvent) error
}

// Metrics records per-operation service metrics
type Metrics interface {
	RecordLatency(ctx context.Context, operation string, duration time.Duration)
	RecordCount(ctx context.Context, metricName string, count float64, dimensions map[string]string)
	RecordError(ctx context.Context, operation string, code string)
}
