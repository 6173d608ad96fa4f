package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"homelink-backend/domain/device"
	"homelink-backend/pkg/common"
	apperrors "homelink-backend/pkg/errors"
)

const deviceID = "3f1c5a52-6c1e-4b8e-9a57-8f8e2f0d9b10"

type MockDeviceService struct {
	mock.Mock
}

func (m *MockDeviceService) Register(ctx context.Context, ownerID string, req device.RegistrationRequest) (device.Device, error) {
	args := m.Called(ctx, ownerID, req)
	dev, _ := args.Get(0).(device.Device)
	return dev, args.Error(1)
}

func (m *MockDeviceService) Get(ctx context.Context, ownerID, id string) (device.Device, error) {
	args := m.Called(ctx, ownerID, id)
	dev, _ := args.Get(0).(device.Device)
	return dev, args.Error(1)
}

func (m *MockDeviceService) List(ctx context.Context, ownerID string) ([]device.Device, error) {
	args := m.Called(ctx, ownerID)
	devices, _ := args.Get(0).([]device.Device)
	return devices, args.Error(1)
}

func (m *MockDeviceService) Update(ctx context.Context, ownerID, id string, patch device.RawFields) error {
	return m.Called(ctx, ownerID, id, patch).Error(0)
}

func (m *MockDeviceService) Delete(ctx context.Context, ownerID, id string) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

// serve routes a request the way the router does, with the owner already
// placed on the context
func serve(h *DeviceHandler, method, path, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(common.WithOwnerID(req.Context(), "owner-1")))
		})
	})
	r.Post("/devices", h.RegisterDevice)
	r.Get("/devices", h.ListDevices)
	r.Get("/devices/{id}", h.GetDevice)
	r.Put("/devices/{id}", h.UpdateDevice)
	r.Delete("/devices/{id}", h.DeleteDevice)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func newHandler(svc *MockDeviceService, protected bool) *DeviceHandler {
	return NewDeviceHandler(svc, apperrors.NewErrorHandler(zap.NewNop(), protected), zap.NewNop())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterDevice_Created(t *testing.T) {
	svc := new(MockDeviceService)
	stored := device.Device{
		device.FieldOwnerID:        "owner-1",
		device.FieldDeviceID:       deviceID,
		device.FieldDeviceCategory: "Light",
	}
	svc.On("Register", mock.Anything, "owner-1", mock.MatchedBy(func(req device.RegistrationRequest) bool {
		return req.DeviceCategory == "Light"
	})).Return(stored, nil)

	rec := serve(newHandler(svc, true), http.MethodPost, "/devices", `{"deviceCategory": "Light"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, deviceID, body[device.FieldDeviceID])
	svc.AssertExpectations(t)
}

func TestRegisterDevice_ParseErrorSkipsService(t *testing.T) {
	svc := new(MockDeviceService)

	rec := serve(newHandler(svc, true), http.MethodPost, "/devices", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(apperrors.CodeNoBody), decodeError(t, rec).Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterDevice_Conflict(t *testing.T) {
	svc := new(MockDeviceService)
	svc.On("Register", mock.Anything, "owner-1", mock.Anything).Return(nil, apperrors.NewAlreadyExistsError())

	rec := serve(newHandler(svc, true), http.MethodPost, "/devices", `{"deviceCategory": "Light"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(apperrors.CodeItemAlreadyExists), decodeError(t, rec).Code)
}

func TestGetDevice(t *testing.T) {
	svc := new(MockDeviceService)
	svc.On("Get", mock.Anything, "owner-1", deviceID).
		Return(device.Device{device.FieldDeviceID: deviceID}, nil)

	rec := serve(newHandler(svc, true), http.MethodGet, "/devices/"+deviceID, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deviceId": "`+deviceID+`"}`, rec.Body.String())
}

func TestGetDevice_NotFound(t *testing.T) {
	svc := new(MockDeviceService)
	svc.On("Get", mock.Anything, "owner-1", deviceID).Return(nil, apperrors.NewNotFoundError())

	rec := serve(newHandler(svc, true), http.MethodGet, "/devices/"+deviceID, "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.MsgItemNotFound, decodeError(t, rec).Message)
}

func TestGetDevice_InvalidID(t *testing.T) {
	svc := new(MockDeviceService)

	rec := serve(newHandler(svc, true), http.MethodGet, "/devices/not-a-uuid", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(apperrors.CodeInvalidID), body.Code)
	assert.Equal(t, apperrors.MsgInvalidID, body.Message)
}

func TestListDevices_EmptyIsArray(t *testing.T) {
	svc := new(MockDeviceService)
	svc.On("List", mock.Anything, "owner-1").Return(nil, nil)

	rec := serve(newHandler(svc, true), http.MethodGet, "/devices", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestUpdateDevice_Status(t *testing.T) {
	svc := new(MockDeviceService)
	svc.On("Update", mock.Anything, "owner-1", deviceID, mock.MatchedBy(func(patch device.RawFields) bool {
		return len(patch) == 1 && patch[0].Name == device.FieldDeviceName
	})).Return(nil)

	rec := serve(newHandler(svc, true), http.MethodPut, "/devices/"+deviceID, `{"deviceName": "X"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": true}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestUpdateDevice_ValidationFailureIs400(t *testing.T) {
	svc := new(MockDeviceService)
	svc.On("Update", mock.Anything, "owner-1", deviceID, mock.Anything).
		Return(apperrors.NewInvalidValuesError([]string{"colour: Purple"}))

	rec := serve(newHandler(svc, true), http.MethodPut, "/devices/"+deviceID, `{"colour": "Purple"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, string(apperrors.CodeInvalidValues), body.Code)
	assert.Equal(t, "The following values are invalid: colour: Purple", body.Message)
}

func TestDeleteDevice(t *testing.T) {
	svc := new(MockDeviceService)
	svc.On("Delete", mock.Anything, "owner-1", deviceID).Return(nil)

	rec := serve(newHandler(svc, true), http.MethodDelete, "/devices/"+deviceID, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": true}`, rec.Body.String())
}

func TestInternalErrorsAreRedactedInProtectedStages(t *testing.T) {
	tests := []struct {
		name      string
		protected bool
		wantMsg   string
		wantCode  string
	}{
		{name: "protected", protected: true, wantMsg: apperrors.MsgGeneric, wantCode: string(apperrors.CodeUnexpected)},
		{name: "development", protected: false, wantMsg: apperrors.MsgStoreFailure + ": GetItem", wantCode: string(apperrors.CodeStoreFailure)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDeviceService)
			svc.On("Get", mock.Anything, "owner-1", deviceID).
				Return(nil, apperrors.NewStoreError("GetItem", assert.AnError))

			rec := serve(newHandler(svc, tt.protected), http.MethodGet, "/devices/"+deviceID, "")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.wantMsg, body.Message)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.Equal(t, string(apperrors.KindInternal), body.Type)
		})
	}
}
