package events

import "time"

// Source is the EventBridge source of every device event
const Source = "homelink.devices"

// Event types
const (
	TypeDeviceRegistered = "device.registered"
	TypeDeviceUpdated    = "device.updated"
	TypeDeviceDeleted    = "device.deleted"
)

// DomainEvent is something that has happened to a device
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(deviceID, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: deviceID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
	}
}

// DeviceRegistered is raised after a new device is stored
type DeviceRegistered struct {
	BaseEvent
	OwnerID  string `json:"owner_id"`
	DeviceID string `json:"device_id"`
	Category string `json:"device_category"`
}

// NewDeviceRegistered creates a DeviceRegistered event
func NewDeviceRegistered(ownerID, deviceID, category string, timestamp time.Time) DeviceRegistered {
	return DeviceRegistered{
		BaseEvent: newBase(deviceID, TypeDeviceRegistered, timestamp),
		OwnerID:   ownerID,
		DeviceID:  deviceID,
		Category:  category,
	}
}

// DeviceUpdated is raised after a patch is written
type DeviceUpdated struct {
	BaseEvent
	OwnerID  string   `json:"owner_id"`
	DeviceID string   `json:"device_id"`
	Fields   []string `json:"fields"`
}

// NewDeviceUpdated creates a DeviceUpdated event naming the changed fields
func NewDeviceUpdated(ownerID, deviceID string, fields []string, timestamp time.Time) DeviceUpdated {
	return DeviceUpdated{
		BaseEvent: newBase(deviceID, TypeDeviceUpdated, timestamp),
		OwnerID:   ownerID,
		DeviceID:  deviceID,
		Fields:    fields,
	}
}

// DeviceDeleted is raised after a device is removed
type DeviceDeleted struct {
	BaseEvent
	OwnerID  string `json:"owner_id"`
	DeviceID string `json:"device_id"`
	Category string `json:"device_category"`
}

// NewDeviceDeleted creates a DeviceDeleted event
func NewDeviceDeleted(ownerID, deviceID, category string, timestamp time.Time) DeviceDeleted {
	return DeviceDeleted{
		BaseEvent: newBase(deviceID, TypeDeviceDeleted, timestamp),
		OwnerID:   ownerID,
		DeviceID:  deviceID,
		Category:  category,
	}
}
