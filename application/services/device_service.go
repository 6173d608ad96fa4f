package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"homelink-backend/application/ports"
	"homelink-backend/domain/device"
	"homelink-backend/domain/events"
	apperrors "homelink-backend/pkg/errors"
	"homelink-backend/pkg/observability"
)

// Operation names used for tracing and metrics
const (
	OpRegister = "RegisterDevice"
	OpGet      = "GetDevice"
	OpList     = "ListDevices"
	OpUpdate   = "UpdateDevice"
	OpDelete   = "DeleteDevice"
)

// DeviceService sequences store calls around the device schema pipeline.
// Every operation is scoped to the owner passed in.
type DeviceService struct {
	repo      ports.DeviceRepository
	factory   *device.Factory
	publisher ports.EventPublisher
	metrics   ports.Metrics
	tracer    *observability.Tracer
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeviceService creates a new device service
func NewDeviceService(
	repo ports.DeviceRepository,
	factory *device.Factory,
	publisher ports.EventPublisher,
	metrics ports.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *DeviceService {
	return &DeviceService{
		repo:      repo,
		factory:   factory,
		publisher: publisher,
		metrics:   metrics,
		tracer:    tracer,
		logger:    logger,
		now:       time.Now,
	}
}

// Register validates a registration and stores the new device. The insert
// is conditional, so an id collision surfaces as ITEM_ALREADY_EXISTS.
func (s *DeviceService) Register(ctx context.Context, ownerID string, req device.RegistrationRequest) (device.Device, error) {
	var created device.Device

	err := s.observe(ctx, OpRegister, func(ctx context.Context) error {
		dev, err := s.factory.Create(ownerID, req)
		if err != nil {
			return err
		}

		s.tracer.AddAnnotation(ctx, "deviceID", dev.DeviceID())
		if err := s.repo.PutIfAbsent(ctx, dev); err != nil {
			return err
		}

		created = dev
		return nil
	})
	if err != nil {
		return nil, err
	}

	schema := device.Resolve(created.Category()).Category()
	s.metrics.RecordCount(ctx, "DevicesRegistered", 1, map[string]string{"Category": schema})
	s.publish(ctx, events.NewDeviceRegistered(ownerID, created.DeviceID(), created.Category(), s.now()))

	s.logger.Info("Device registered",
		zap.String("deviceID", created.DeviceID()),
		zap.String("category", created.Category()),
	)
	return created, nil
}

// Get returns one of the owner's devices
func (s *DeviceService) Get(ctx context.Context, ownerID, deviceID string) (device.Device, error) {
	var dev device.Device
	err := s.observe(ctx, OpGet, func(ctx context.Context) error {
		var err error
		dev, err = s.repo.Get(ctx, ownerID, deviceID)
		return err
	})
	return dev, err
}

// List returns all of the owner's devices
func (s *DeviceService) List(ctx context.Context, ownerID string) ([]device.Device, error) {
	var devices []device.Device
	err := s.observe(ctx, OpList, func(ctx context.Context) error {
		var err error
		devices, err = s.repo.ListByOwner(ctx, ownerID)
		return err
	})
	return devices, err
}

// Update reads the stored device, validates the patch against the stored
// category and writes the changed fields. Nothing guards against a
// concurrent update between the read and the write; the last write wins
// per field.
func (s *DeviceService) Update(ctx context.Context, ownerID, deviceID string, patch device.RawFields) error {
	var mutation device.Mutation

	err := s.observe(ctx, OpUpdate, func(ctx context.Context) error {
		stored, err := s.repo.Get(ctx, ownerID, deviceID)
		if err != nil {
			return err
		}

		category := stored.Category()
		if category == "" {
			return apperrors.NewCategoryMissingError().
				WithDetail("deviceId", deviceID)
		}

		mutation, err = device.BuildUpdate(category, patch)
		if err != nil {
			return err
		}
		if mutation.IsEmpty() {
			return nil
		}

		return s.repo.Update(ctx, ownerID, deviceID, mutation)
	})
	if err != nil {
		return err
	}

	if mutation.IsEmpty() {
		s.logger.Debug("Empty device update", zap.String("deviceID", deviceID))
		return nil
	}

	s.publish(ctx, events.NewDeviceUpdated(ownerID, deviceID, mutation.Fields(), s.now()))
	s.logger.Info("Device updated",
		zap.String("deviceID", deviceID),
		zap.Strings("fields", mutation.Fields()),
	)
	return nil
}

// Delete removes one of the owner's devices
func (s *DeviceService) Delete(ctx context.Context, ownerID, deviceID string) error {
	var deleted device.Device
	err := s.observe(ctx, OpDelete, func(ctx context.Context) error {
		var err error
		deleted, err = s.repo.Delete(ctx, ownerID, deviceID)
		return err
	})
	if err != nil {
		return err
	}

	schema := device.Resolve(deleted.Category()).Category()
	s.metrics.RecordCount(ctx, "DevicesDeleted", 1, map[string]string{"Category": schema})
	s.publish(ctx, events.NewDeviceDeleted(ownerID, deviceID, deleted.Category(), s.now()))

	s.logger.Info("Device deleted", zap.String("deviceID", deviceID))
	return nil
}

// observe traces fn and records its latency and error code
func (s *DeviceService) observe(ctx context.Context, operation string, fn func(context.Context) error) error {
	start := s.now()
	err := s.tracer.TraceFunction(ctx, operation, fn)
	s.metrics.RecordLatency(ctx, operation, time.Since(start))

	if err != nil {
		code := string(apperrors.CodeUnexpected)
		if appErr := apperrors.GetAppError(err); appErr != nil {
			code = string(appErr.Code)
		}
		s.metrics.RecordError(ctx, operation, code)
	}
	return err
}

// publish sends an event. The write has already happened, so failures are
// only logged.
func (s *DeviceService) publish(ctx context.Context, event events.DomainEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish device event",
			zap.String("eventType", event.GetEventType()),
			zap.String("deviceID", event.GetAggregateID()),
			zap.Error(err),
		)
	}
}
