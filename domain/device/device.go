// Package device holds the device record model, the per-category schemas
// and the registration and update pipelines built on them.
package device

import (
	"encoding/json"
	"math"
)

// Field names of the persisted record
const (
	FieldOwnerID        = "ownerId"
	FieldDeviceID       = "deviceId"
	FieldDeviceCategory = "deviceCategory"
	FieldRegisteredAt   = "registeredAt"
	FieldIsPowered      = "isPowered"
	FieldDeviceName     = "deviceName"
	FieldModelType      = "modelType"
	FieldColour         = "colour"
	FieldIntensity      = "intensity"
	FieldAlarmThreshold = "alarmThreshold"
)

// BaseFields must be present on every stored record
var BaseFields = []string{FieldOwnerID, FieldDeviceID, FieldDeviceCategory, FieldRegisteredAt}

// Device is a stored record. Its field set depends on the category schema.
type Device map[string]interface{}

func (d Device) str(name string) string {
	s, _ := d[name].(string)
	return s
}

func (d Device) OwnerID() string  { return d.str(FieldOwnerID) }
func (d Device) DeviceID() string { return d.str(FieldDeviceID) }
func (d Device) Category() string { return d.str(FieldDeviceCategory) }
func (d Device) Name() string     { return d.str(FieldDeviceName) }
func (d Device) ModelType() string {
	return d.str(FieldModelType)
}

// IsPowered reports the power flag, false when unset
func (d Device) IsPowered() bool {
	b, _ := d[FieldIsPowered].(bool)
	return b
}

// RegisteredAt returns the registration time in milliseconds since the epoch
func (d Device) RegisteredAt() int64 {
	n, _ := Int64(d[FieldRegisteredAt])
	return n
}

// MissingBaseFields lists the base fields absent or empty on the record
func (d Device) MissingBaseFields() []string {
	var missingFields []string
	for _, name := range BaseFields {
		v, ok := d[name]
		if !ok || v == nil || v == "" {
			missingFields = append(missingFields, name)
		}
	}
	return missingFields
}

// Clone returns a shallow copy of the record
func (d Device) Clone() Device {
	out := make(Device, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Apply returns a copy of the record with the mutation's assignments written
func (d Device) Apply(m Mutation) Device {
	out := d.Clone()
	for _, a := range m.Assignments {
		out[a.Field] = a.Value
	}
	return out
}

// Int64 reads a whole number stored as any of the numeric types that JSON
// or DynamoDB decoding produce
func Int64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
