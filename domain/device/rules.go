package device

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"homelink-backend/pkg/utils"
)

// IssueKind classifies a single field problem
type IssueKind string

const (
	IssueMissing      IssueKind = "missing"
	IssueWrongType    IssueKind = "wrong_type"
	IssueOutOfRange   IssueKind = "out_of_range"
	IssueInvalidEnum  IssueKind = "invalid_enum"
	IssueUnknownField IssueKind = "unknown_field"
	IssueCustom       IssueKind = "custom"
)

// Issue is one field problem found while validating a payload
type Issue struct {
	Field   string    `json:"field"`
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// maxSafeInteger is the largest integer a JSON number carries without loss
const maxSafeInteger = 1<<53 - 1

// Rule coerces a raw payload value into its stored Go type and checks its
// domain. It returns the coerced value or the issue found.
type Rule func(field string, value interface{}) (interface{}, *Issue)

// StringRule accepts strings that satisfy the validator tag (empty tag: any string)
func StringRule(tag string) Rule {
	return func(field string, value interface{}) (interface{}, *Issue) {
		s, ok := value.(string)
		if !ok {
			return nil, wrongType(field, "a string")
		}
		if issue := checkTag(field, s, tag); issue != nil {
			return nil, issue
		}
		return s, nil
	}
}

// EnumRule accepts one of a fixed set of strings, matched exactly
func EnumRule(values ...string) Rule {
	return StringRule("oneof=" + strings.Join(values, " "))
}

// BoolRule accepts JSON booleans only
func BoolRule() Rule {
	return func(field string, value interface{}) (interface{}, *Issue) {
		b, ok := value.(bool)
		if !ok {
			return nil, wrongType(field, "a boolean")
		}
		return b, nil
	}
}

// IntRule accepts whole numbers within the safe JSON range that satisfy the
// validator tag. Fractional values are rejected.
func IntRule(tag string) Rule {
	return func(field string, value interface{}) (interface{}, *Issue) {
		n, issue := toInteger(field, value)
		if issue != nil {
			return nil, issue
		}
		if issue := checkTag(field, n, tag); issue != nil {
			return nil, issue
		}
		return n, nil
	}
}

func toInteger(field string, value interface{}) (int64, *Issue) {
	var f float64
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return checkSafe(field, i)
		}
		parsed, err := v.Float64()
		if err != nil {
			return 0, wrongType(field, "a number")
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		return checkSafe(field, int64(v))
	case int32:
		return checkSafe(field, int64(v))
	case int64:
		return checkSafe(field, v)
	case uint32:
		return checkSafe(field, int64(v))
	default:
		return 0, wrongType(field, "a number")
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, wrongType(field, "a finite number")
	}
	if f != math.Trunc(f) {
		return 0, wrongType(field, "a whole number")
	}
	if math.Abs(f) > maxSafeInteger {
		return 0, outOfRange(field, "is outside the safe integer range")
	}
	return int64(f), nil
}

func checkSafe(field string, n int64) (int64, *Issue) {
	if n > maxSafeInteger || n < -maxSafeInteger {
		return 0, outOfRange(field, "is outside the safe integer range")
	}
	return n, nil
}

// checkTag runs the validator tag and maps the first failure to an issue
func checkTag(field string, value interface{}, tag string) *Issue {
	if tag == "" {
		return nil
	}
	err := utils.ValidateVar(value, tag)
	if err == nil {
		return nil
	}

	fieldErrors := utils.FieldErrors(err)
	if len(fieldErrors) == 0 {
		return &Issue{Field: field, Kind: IssueCustom, Message: fmt.Sprintf("%s is invalid", field)}
	}

	fe := fieldErrors[0]
	kind := IssueOutOfRange
	switch fe.Tag() {
	case "required":
		return missing(field)
	case "oneof":
		kind = IssueInvalidEnum
	case "min", "max", "gt", "gte", "lt", "lte", "len":
		kind = IssueOutOfRange
	default:
		kind = IssueCustom
	}
	return &Issue{Field: field, Kind: kind, Message: utils.FormatFieldError(field, fe)}
}

func missing(field string) *Issue {
	return &Issue{Field: field, Kind: IssueMissing, Message: fmt.Sprintf("Missing required field: %s", field)}
}

func wrongType(field, want string) *Issue {
	return &Issue{Field: field, Kind: IssueWrongType, Message: fmt.Sprintf("%s must be %s", field, want)}
}

func outOfRange(field, msg string) *Issue {
	return &Issue{Field: field, Kind: IssueOutOfRange, Message: fmt.Sprintf("%s %s", field, msg)}
}

func unknownField(field string) *Issue {
	return &Issue{Field: field, Kind: IssueUnknownField, Message: fmt.Sprintf("%s is not a recognised field", field)}
}

func customIssue(field, msg string) *Issue {
	return &Issue{Field: field, Kind: IssueCustom, Message: fmt.Sprintf("%s %s", field, msg)}
}
