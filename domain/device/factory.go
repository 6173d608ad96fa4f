package device

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "homelink-backend/pkg/errors"
)

// RegistrationRequest is a parsed registration body. DeviceCategory may be
// empty when the body names a known modelType instead.
type RegistrationRequest struct {
	DeviceCategory string
	Body           RawFields
}

// systemFields are set by the factory and may not come from the caller
var systemFields = []string{FieldOwnerID, FieldDeviceID, FieldRegisteredAt}

// Factory builds new device records for registration
type Factory struct {
	now     func() time.Time
	newID   func() string
	resolve func(string) Schema
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithClock sets the clock used for registeredAt
func WithClock(now func() time.Time) FactoryOption {
	return func(f *Factory) { f.now = now }
}

// WithIDGenerator sets the device id generator
func WithIDGenerator(newID func() string) FactoryOption {
	return func(f *Factory) { f.newID = newID }
}

// WithResolver replaces the schema lookup
func WithResolver(resolve func(string) Schema) FactoryOption {
	return func(f *Factory) { f.resolve = resolve }
}

// NewFactory creates a factory with the wall clock and random UUIDs
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		now:     time.Now,
		newID:   uuid.NewString,
		resolve: Resolve,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create validates a registration for ownerID and returns the full record.
// Every call mints a new device id.
func (f *Factory) Create(ownerID string, req RegistrationRequest) (Device, error) {
	if ownerID == "" {
		return nil, apperrors.NewParsingError("owner identity missing from registration")
	}

	category := strings.TrimSpace(req.DeviceCategory)
	if category == "" {
		if model, ok := req.Body.Get(FieldModelType); ok {
			if s, isString := model.(string); isString {
				category, _ = CategoryForModel(s)
			}
		}
	}
	if category == "" {
		return nil, apperrors.NewMissingFieldError(FieldDeviceCategory)
	}

	var issues []Issue
	for _, name := range systemFields {
		if req.Body.Has(name) {
			issues = append(issues, *customIssue(name, "cannot be supplied"))
		}
	}

	fields := req.Body.Without(systemFields...)
	fields = fields.Set(FieldDeviceCategory, category)
	fields = fields.Set(FieldOwnerID, ownerID)
	fields = fields.Set(FieldDeviceID, f.newID())
	fields = fields.Set(FieldRegisteredAt, f.now().UnixMilli())

	schema := f.resolve(category)
	dev, err := schema.Construct(fields)
	if err != nil {
		constructIssues := IssuesFrom(err)
		if len(constructIssues) == 0 {
			return nil, err
		}
		issues = append(issues, constructIssues...)
	}
	if len(issues) > 0 {
		return nil, NewInvalidDeviceError(issues)
	}

	if missingFields := dev.MissingBaseFields(); len(missingFields) > 0 {
		return nil, apperrors.NewSchemaInvariantError("constructed device is missing base fields: "+
			strings.Join(missingFields, ", ")).
			WithDetail("schema", schema.Category())
	}

	return dev, nil
}
