package memory

import (
	"context"
	"sort"
	"sync"

	"homelink-backend/application/ports"
	"homelink-backend/domain/device"
	apperrors "homelink-backend/pkg/errors"
)

// DeviceRepository keeps devices in process memory, for local runs and tests
type DeviceRepository struct {
	mu      sync.RWMutex
	devices map[string]map[string]device.Device
}

// NewDeviceRepository creates an empty in-memory repository
func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{
		devices: make(map[string]map[string]device.Device),
	}
}

var _ ports.DeviceRepository = (*DeviceRepository)(nil)

// Get returns a copy of the stored device
func (r *DeviceRepository) Get(ctx context.Context, ownerID, deviceID string) (device.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, ok := r.devices[ownerID][deviceID]
	if !ok {
		return nil, apperrors.NewNotFoundError()
	}
	return dev.Clone(), nil
}

// PutIfAbsent stores a copy of dev unless its id is taken
func (r *DeviceRepository) PutIfAbsent(ctx context.Context, dev device.Device) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStoreError("PutItem", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	owned, ok := r.devices[dev.OwnerID()]
	if !ok {
		owned = make(map[string]device.Device)
		r.devices[dev.OwnerID()] = owned
	}
	if _, exists := owned[dev.DeviceID()]; exists {
		return apperrors.NewAlreadyExistsError()
	}
	owned[dev.DeviceID()] = dev.Clone()
	return nil
}

// Update applies the mutation to an existing device
func (r *DeviceRepository) Update(ctx context.Context, ownerID, deviceID string, mutation device.Mutation) error {
	if err := ctx.Err(); err != nil {
		return apperrors.NewStoreError("UpdateItem", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[ownerID][deviceID]
	if !ok {
		return apperrors.NewNotFoundError()
	}
	r.devices[ownerID][deviceID] = dev.Apply(mutation)
	return nil
}

// Delete removes a device and returns it
func (r *DeviceRepository) Delete(ctx context.Context, ownerID, deviceID string) (device.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.devices[ownerID][deviceID]
	if !ok {
		return nil, apperrors.NewNotFoundError()
	}
	delete(r.devices[ownerID], deviceID)
	return dev, nil
}

// ListByOwner returns the owner's devices ordered by device id, as a range
// key query would
func (r *DeviceRepository) ListByOwner(ctx context.Context, ownerID string) ([]device.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]device.Device, 0, len(r.devices[ownerID]))
	for _, dev := range r.devices[ownerID] {
		out = append(out, dev.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DeviceID() < out[j].DeviceID()
	})
	return out, nil
}
