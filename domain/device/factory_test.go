package device

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "homelink-backend/pkg/errors"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestFactory() *Factory {
	return NewFactory(
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "3f1c5a52-6c1e-4b8e-9a57-8f8e2f0d9b10" }),
	)
}

func registration(category string, fields ...FieldValue) RegistrationRequest {
	body := RawFields{{Name: FieldDeviceCategory, Value: category}}
	body = append(body, fields...)
	return RegistrationRequest{DeviceCategory: category, Body: body}
}

func TestFactory_Create_AllCategoriesCarryBaseFieldsAndDefaults(t *testing.T) {
	tests := []struct {
		category     string
		wantDefaults map[string]interface{}
		wantAbsent   []string
	}{
		{
			category: "Light",
			wantDefaults: map[string]interface{}{
				FieldIsPowered: true,
				FieldColour:    DefaultColour,
				FieldIntensity: DefaultIntensity,
			},
			wantAbsent: []string{FieldAlarmThreshold},
		},
		{
			category: "CarbonMonitor",
			wantDefaults: map[string]interface{}{
				FieldIsPowered:      true,
				FieldAlarmThreshold: DefaultAlarmThreshold,
			},
			wantAbsent: []string{FieldColour, FieldIntensity},
		},
		{
			category:     "unknown-widget",
			wantDefaults: map[string]interface{}{FieldIsPowered: true},
			wantAbsent:   []string{FieldColour, FieldIntensity, FieldAlarmThreshold},
		},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			dev, err := newTestFactory().Create("owner-1", registration(tt.category))
			require.NoError(t, err)

			assert.Empty(t, dev.MissingBaseFields())
			assert.Equal(t, "owner-1", dev.OwnerID())
			assert.Equal(t, "3f1c5a52-6c1e-4b8e-9a57-8f8e2f0d9b10", dev.DeviceID())
			assert.Equal(t, tt.category, dev.Category())
			assert.Equal(t, fixedNow.UnixMilli(), dev.RegisteredAt())

			for name, want := range tt.wantDefaults {
				assert.Equal(t, want, dev[name], name)
			}
			for _, name := range tt.wantAbsent {
				assert.NotContains(t, dev, name)
			}
		})
	}
}

func TestFactory_Create_UnknownCategoryUsesBaseSchema(t *testing.T) {
	dev, err := newTestFactory().Create("owner-1", registration("unknown-widget"))
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{FieldOwnerID, FieldDeviceID, FieldDeviceCategory, FieldRegisteredAt, FieldIsPowered},
		keys(dev))
}

func TestFactory_Create_SuppliedFieldsOverrideDefaults(t *testing.T) {
	dev, err := newTestFactory().Create("owner-1", registration("light",
		FieldValue{Name: FieldIsPowered, Value: false},
		FieldValue{Name: FieldDeviceName, Value: "Kitchen"},
		FieldValue{Name: FieldIntensity, Value: json.Number("40")},
	))
	require.NoError(t, err)

	assert.False(t, dev.IsPowered())
	assert.Equal(t, "Kitchen", dev.Name())
	assert.Equal(t, int64(40), dev[FieldIntensity])
	assert.Equal(t, DefaultColour, dev[FieldColour])
}

func TestFactory_Create_RejectsSystemFields(t *testing.T) {
	_, err := newTestFactory().Create("owner-1", registration("light",
		FieldValue{Name: FieldOwnerID, Value: "someone-else"},
		FieldValue{Name: FieldDeviceID, Value: "chosen-id"},
		FieldValue{Name: FieldRegisteredAt, Value: json.Number("1")},
		FieldValue{Name: FieldIntensity, Value: json.Number("500")},
	))
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeInvalidPayload, appErr.Code)
	assert.Contains(t, appErr.Message, "ownerId cannot be supplied")
	assert.Contains(t, appErr.Message, "deviceId cannot be supplied")
	assert.Contains(t, appErr.Message, "registeredAt cannot be supplied")
	assert.Contains(t, appErr.Message, "intensity must be at most 100")
}

func TestFactory_Create_InvalidFieldsAreValidationErrors(t *testing.T) {
	_, err := newTestFactory().Create("owner-1", registration("light",
		FieldValue{Name: FieldDeviceName, Value: "a name that is far too long for the limit"},
	))
	require.Error(t, err)

	assert.True(t, apperrors.IsValidation(err))
	issues := IssuesFrom(err)
	require.Len(t, issues, 1)
	assert.Equal(t, FieldDeviceName, issues[0].Field)
	assert.Equal(t, IssueOutOfRange, issues[0].Kind)
}

func TestFactory_Create_InfersCategoryFromModelType(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{model: "LED", want: "Light"},
		{model: "Flourescent", want: "Light"},
		{model: "CO2", want: "CarbonMonitor"},
		{model: "co", want: "CarbonMonitor"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			req := RegistrationRequest{Body: RawFields{{Name: FieldModelType, Value: tt.model}}}

			dev, err := newTestFactory().Create("owner-1", req)
			require.NoError(t, err)

			assert.Equal(t, tt.want, dev.Category())
			assert.Equal(t, tt.model, dev.ModelType())
		})
	}
}

func TestFactory_Create_MissingCategory(t *testing.T) {
	req := RegistrationRequest{Body: RawFields{{Name: FieldModelType, Value: "Toaster"}}}

	_, err := newTestFactory().Create("owner-1", req)
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeMissingRequiredField, appErr.Code)
	assert.Equal(t, "Missing required field: deviceCategory", appErr.Message)
}

func TestFactory_Create_EmptyOwnerIsInternal(t *testing.T) {
	_, err := newTestFactory().Create("", registration("light"))
	require.Error(t, err)
	assert.True(t, apperrors.IsInternal(err))
}

// brokenSchema drops the device id, simulating a bad schema registration
type brokenSchema struct{ Schema }

func (b brokenSchema) Construct(raw RawFields) (Device, error) {
	dev, err := b.Schema.Construct(raw)
	if err != nil {
		return nil, err
	}
	delete(dev, FieldDeviceID)
	return dev, nil
}

func TestFactory_Create_BaseInvariantViolationIsInternal(t *testing.T) {
	f := NewFactory(WithResolver(func(category string) Schema {
		return brokenSchema{Resolve(category)}
	}))

	_, err := f.Create("owner-1", registration("light"))
	require.Error(t, err)

	appErr := apperrors.GetAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeSchemaInvariant, appErr.Code)
	assert.True(t, appErr.IsInternal())
	assert.Contains(t, appErr.Message, FieldDeviceID)
}

func TestFactory_Create_MintsNewIDPerCall(t *testing.T) {
	f := NewFactory()

	first, err := f.Create("owner-1", registration("light"))
	require.NoError(t, err)
	second, err := f.Create("owner-1", registration("light"))
	require.NoError(t, err)

	assert.NotEqual(t, first.DeviceID(), second.DeviceID())
	_, err = uuid.Parse(first.DeviceID())
	assert.NoError(t, err)
}

func keys(d Device) []string {
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	return out
}
