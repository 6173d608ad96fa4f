package device

import (
	"strconv"
	"strings"

	"homelink-backend/pkg/utils"
)

const (
	CategoryBase          = "base"
	CategoryLight         = "light"
	CategoryCarbonMonitor = "carbonmonitor"
)

// Light colours accepted by the colour field
var LightColours = []string{"Red", "Yellow", "White", "Green", "Blue"}

const (
	DefaultColour         = "White"
	DefaultIntensity      = int64(100)
	DefaultAlarmThreshold = int64(220)
	MaxDeviceNameLength   = 32
)

func constant(v interface{}) func() interface{} {
	return func() interface{} { return v }
}

var (
	baseSchema = newDefinition(CategoryBase, []Field{
		{Name: FieldOwnerID, Presence: Required, Rule: StringRule("required")},
		{Name: FieldDeviceID, Presence: Required, Rule: StringRule("required")},
		{Name: FieldDeviceCategory, Presence: Required, Rule: StringRule("required,max=64")},
		{
			Name:     FieldRegisteredAt,
			Presence: Defaulted,
			Default:  func() interface{} { return utils.NowMillis() },
			Rule:     IntRule("gte=0"),
		},
		{Name: FieldIsPowered, Presence: Defaulted, Default: constant(true), Rule: BoolRule(), Updatable: true},
		{Name: FieldDeviceName, Presence: Optional, Rule: StringRule("max=" + strconv.Itoa(MaxDeviceNameLength)), Updatable: true},
		{Name: FieldModelType, Presence: Optional, Rule: StringRule("max=32")},
	})

	lightSchema = baseSchema.extend(CategoryLight,
		Field{Name: FieldColour, Presence: Defaulted, Default: constant(DefaultColour), Rule: EnumRule(LightColours...), Updatable: true},
		Field{Name: FieldIntensity, Presence: Defaulted, Default: constant(DefaultIntensity), Rule: IntRule("min=0,max=100"), Updatable: true},
	)

	carbonMonitorSchema = baseSchema.extend(CategoryCarbonMonitor,
		Field{Name: FieldAlarmThreshold, Presence: Defaulted, Default: constant(DefaultAlarmThreshold), Rule: IntRule("gt=0"), Updatable: true},
	)
)

// Resolve returns the schema for a category tag, matched case-insensitively.
// Unknown or empty tags get the base schema.
func Resolve(category string) Schema {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case CategoryLight:
		return lightSchema
	case CategoryCarbonMonitor:
		return carbonMonitorSchema
	default:
		return baseSchema
	}
}

// Categories lists the tags that have their own schema
func Categories() []string {
	return []string{CategoryLight, CategoryCarbonMonitor}
}

// model types registered before categories were introduced
var modelCategories = map[string]string{
	"led":         "Light",
	"flourescent": "Light",
	"fluorescent": "Light",
	"co":          "CarbonMonitor",
	"co2":         "CarbonMonitor",
}

// CategoryForModel infers the category tag of a known model type
func CategoryForModel(modelType string) (string, bool) {
	category, ok := modelCategories[strings.ToLower(strings.TrimSpace(modelType))]
	return category, ok
}
