package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"homelink-backend/domain/device"
	"homelink-backend/interfaces/http/rest/parsing"
	"homelink-backend/pkg/common"
	apperrors "homelink-backend/pkg/errors"
)

// DeviceService is the application surface the handlers drive
type DeviceService interface {
	Register(ctx context.Context, ownerID string, req device.RegistrationRequest) (device.Device, error)
	Get(ctx context.Context, ownerID, deviceID string) (device.Device, error)
	List(ctx context.Context, ownerID string) ([]device.Device, error)
	Update(ctx context.Context, ownerID, deviceID string, patch device.RawFields) error
	Delete(ctx context.Context, ownerID, deviceID string) error
}

// DeviceHandler handles device-related HTTP requests
type DeviceHandler struct {
	service DeviceService
	errors  *apperrors.ErrorHandler
	logger  *zap.Logger
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(service DeviceService, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) *DeviceHandler {
	return &DeviceHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger,
	}
}

// RegisterDevice handles POST /devices
func (h *DeviceHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	req, err := parsing.ParseRegisterRequest(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	dev, err := h.service.Register(r.Context(), req.OwnerID, req.Registration)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, dev)
}

// GetDevice handles GET /devices/{id}
func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	req, err := parsing.ParseIDRequest(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	dev, err := h.service.Get(r.Context(), req.OwnerID, req.DeviceID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, dev)
}

// ListDevices handles GET /devices
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	req, err := parsing.ParseGenericRequest(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	devices, err := h.service.List(r.Context(), req.OwnerID)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if devices == nil {
		devices = []device.Device{}
	}

	common.RespondJSON(w, http.StatusOK, devices)
}

// UpdateDevice handles PUT and PATCH /devices/{id}
func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	req, err := parsing.ParseUpdateRequest(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.service.Update(r.Context(), req.OwnerID, req.DeviceID, req.Patch); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondStatus(w)
}

// DeleteDevice handles DELETE /devices/{id}
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	req, err := parsing.ParseIDRequest(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), req.OwnerID, req.DeviceID); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondStatus(w)
}
