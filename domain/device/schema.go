package device

import (
	"errors"
	"strings"

	apperrors "homelink-backend/pkg/errors"
)

// Presence says how a field behaves when it is absent from a payload
type Presence int

const (
	Required Presence = iota
	Optional
	Defaulted
)

func (p Presence) String() string {
	switch p {
	case Required:
		return "required"
	case Optional:
		return "optional"
	case Defaulted:
		return "defaulted"
	default:
		return "unknown"
	}
}

// Field declares one attribute of a category schema
type Field struct {
	Name      string
	Presence  Presence
	Default   func() interface{}
	Rule      Rule
	Updatable bool
}

// Schema validates payloads for one device category
type Schema interface {
	Category() string
	Fields() []Field
	UpdatableFields() []string
	Construct(raw RawFields) (Device, error)
	ValidatePatch(raw RawFields) (Update, error)
}

// Update is a validated, ordered patch whose values are already coerced
type Update struct {
	Changes RawFields
}

// IsEmpty reports whether the patch changes nothing
func (u Update) IsEmpty() bool {
	return len(u.Changes) == 0
}

// definition is the declarative Schema used by every category
type definition struct {
	category string
	fields   []Field
	index    map[string]int
}

func newDefinition(category string, fields []Field) *definition {
	d := &definition{
		category: category,
		fields:   fields,
		index:    make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		d.index[f.Name] = i
	}
	return d
}

// extend returns a new schema with the parent's fields followed by extra ones
func (d *definition) extend(category string, extra ...Field) *definition {
	fields := make([]Field, 0, len(d.fields)+len(extra))
	fields = append(fields, d.fields...)
	fields = append(fields, extra...)
	return newDefinition(category, fields)
}

func (d *definition) Category() string {
	return d.category
}

func (d *definition) Fields() []Field {
	out := make([]Field, len(d.fields))
	copy(out, d.fields)
	return out
}

func (d *definition) UpdatableFields() []string {
	names := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		if f.Updatable {
			names = append(names, f.Name)
		}
	}
	return names
}

func (d *definition) field(name string) (Field, bool) {
	i, ok := d.index[name]
	if !ok {
		return Field{}, false
	}
	return d.fields[i], true
}

// Construct builds a full record. Every problem is reported, not just the first.
func (d *definition) Construct(raw RawFields) (Device, error) {
	var issues []Issue
	dev := Device{}

	for _, f := range d.fields {
		value, present := raw.Get(f.Name)
		if !present {
			switch f.Presence {
			case Required:
				issues = append(issues, *missing(f.Name))
			case Defaulted:
				dev[f.Name] = f.Default()
			}
			continue
		}

		coerced, issue := f.Rule(f.Name, value)
		if issue != nil {
			issues = append(issues, *issue)
			continue
		}
		dev[f.Name] = coerced
	}

	for _, fv := range raw {
		if _, ok := d.field(fv.Name); !ok {
			issues = append(issues, *unknownField(fv.Name))
		}
	}

	if len(issues) > 0 {
		return nil, NewInvalidDeviceError(issues)
	}
	return dev, nil
}

// ValidatePatch checks a patch against the updatable subset. Immutable and
// unknown fields are failures, never silently dropped.
func (d *definition) ValidatePatch(raw RawFields) (Update, error) {
	var (
		nonUpdatable []string
		invalid      []string
		issues       []Issue
		changes      = RawFields{}
	)

	for _, fv := range raw {
		f, ok := d.field(fv.Name)
		if !ok || !f.Updatable {
			nonUpdatable = append(nonUpdatable, fv.Name)
			continue
		}

		coerced, issue := f.Rule(f.Name, fv.Value)
		if issue != nil {
			invalid = append(invalid, fv.Name+": "+FormatValue(fv.Value))
			issues = append(issues, *issue)
			continue
		}
		changes = changes.Set(fv.Name, coerced)
	}

	var nonUpdatableErr, invalidErr *apperrors.AppError
	if len(nonUpdatable) > 0 {
		nonUpdatableErr = apperrors.NewNonUpdatableFieldsError(nonUpdatable)
	}
	if len(invalid) > 0 {
		invalidErr = apperrors.NewInvalidValuesError(invalid).WithDetail("issues", issues)
	}
	if err := apperrors.Aggregate(nonUpdatableErr, invalidErr); err != nil {
		return Update{}, err
	}

	return Update{Changes: changes}, nil
}

// NewInvalidDeviceError folds construct issues into one INVALID_PAYLOAD error
func NewInvalidDeviceError(issues []Issue) *apperrors.AppError {
	messages := make([]string, len(issues))
	for i, issue := range issues {
		messages[i] = issue.Message
	}
	return apperrors.NewInvalidPayloadError("Invalid device: " + strings.Join(messages, "; ")).
		WithDetail("issues", issues)
}

// IssuesFrom returns the field issues carried by a validation error
func IssuesFrom(err error) []Issue {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return nil
	}
	var out []Issue
	if issues, ok := appErr.Details["issues"].([]Issue); ok {
		out = append(out, issues...)
	}
	for _, child := range appErr.Errors {
		out = append(out, IssuesFrom(child)...)
	}
	return out
}
