// Package parsing turns HTTP requests into the inputs of the device service.
package parsing

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"homelink-backend/domain/device"
	"homelink-backend/pkg/common"
	apperrors "homelink-backend/pkg/errors"
)

// maxBodyBytes caps the request body read by the parsers
const maxBodyBytes = 1 << 20

// GenericRequest carries the caller identity shared by every route
type GenericRequest struct {
	OwnerID string
}

// IDRequest addresses a single device
type IDRequest struct {
	GenericRequest
	DeviceID string
}

// RegisterRequest is a parsed POST /devices
type RegisterRequest struct {
	GenericRequest
	Registration device.RegistrationRequest
}

// UpdateRequest is a parsed PUT or PATCH /devices/{id}
type UpdateRequest struct {
	IDRequest
	Patch device.RawFields
}

// ParseGenericRequest reads the owner placed on the context by the identity
// middleware. A request without one never passed authentication, so this is
// a server fault.
func ParseGenericRequest(r *http.Request) (GenericRequest, error) {
	ownerID, ok := common.GetOwnerID(r.Context())
	if !ok {
		return GenericRequest{}, apperrors.NewParsingError("")
	}
	return GenericRequest{OwnerID: ownerID}, nil
}

// ParseIDRequest reads the owner and the {id} path parameter
func ParseIDRequest(r *http.Request) (IDRequest, error) {
	generic, err := ParseGenericRequest(r)
	if err != nil {
		return IDRequest{}, err
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		return IDRequest{}, apperrors.NewInvalidIDError(apperrors.MsgMissingID)
	}
	if _, err := uuid.Parse(id); err != nil {
		return IDRequest{}, apperrors.NewInvalidIDError(apperrors.MsgInvalidID)
	}

	return IDRequest{GenericRequest: generic, DeviceID: id}, nil
}

// ParseRegisterRequest reads the owner and the registration body. The
// category may be omitted when a known modelType lets the factory infer it.
func ParseRegisterRequest(r *http.Request) (RegisterRequest, error) {
	generic, err := ParseGenericRequest(r)
	if err != nil {
		return RegisterRequest{}, err
	}

	body, err := parseBody(r)
	if err != nil {
		return RegisterRequest{}, err
	}

	var category string
	if value, ok := body.Get(device.FieldDeviceCategory); ok {
		s, isString := value.(string)
		if !isString {
			return RegisterRequest{}, apperrors.NewInvalidPayloadError(
				"Invalid device: " + device.FieldDeviceCategory + " must be a string")
		}
		category = s
	}
	if strings.TrimSpace(category) == "" && !body.Has(device.FieldModelType) {
		return RegisterRequest{}, apperrors.NewMissingFieldError(device.FieldDeviceCategory)
	}

	return RegisterRequest{
		GenericRequest: generic,
		Registration: device.RegistrationRequest{
			DeviceCategory: category,
			Body:           body,
		},
	}, nil
}

// ParseUpdateRequest reads the owner, the device id and the patch body
func ParseUpdateRequest(r *http.Request) (UpdateRequest, error) {
	idReq, err := ParseIDRequest(r)
	if err != nil {
		return UpdateRequest{}, err
	}

	patch, err := parseBody(r)
	if err != nil {
		return UpdateRequest{}, err
	}

	return UpdateRequest{IDRequest: idReq, Patch: patch}, nil
}

func parseBody(r *http.Request) (device.RawFields, error) {
	if r.Body == nil {
		return nil, apperrors.NewNoBodyError()
	}

	data, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewPayloadTooLargeError(tooLarge.Limit)
		}
		return nil, apperrors.NewInvalidPayloadError(apperrors.MsgInvalidJSON).WithCause(err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, apperrors.NewNoBodyError()
	}

	fields, err := device.ParseRawFields(data)
	if err != nil {
		appErr := apperrors.NewInvalidPayloadError(apperrors.MsgInvalidJSON).WithCause(err)
		if errors.Is(err, device.ErrNotObject) {
			appErr = appErr.WithDetail("reason", "body must be a JSON object")
		}
		return nil, appErr
	}
	return fields, nil
}
