package device

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntRule(t *testing.T) {
	rule := IntRule("min=0,max=100")

	tests := []struct {
		name     string
		value    interface{}
		want     int64
		wantKind IssueKind
	}{
		{name: "json integer", value: json.Number("50"), want: 50},
		{name: "lower bound", value: json.Number("0"), want: 0},
		{name: "upper bound", value: json.Number("100"), want: 100},
		{name: "exponent form", value: json.Number("1e2"), want: 100},
		{name: "float64 whole", value: float64(70), want: 70},
		{name: "int64", value: int64(12), want: 12},
		{name: "fraction", value: json.Number("50.5"), wantKind: IssueWrongType},
		{name: "float64 fraction", value: 0.25, wantKind: IssueWrongType},
		{name: "numeric string", value: "50", wantKind: IssueWrongType},
		{name: "bool", value: true, wantKind: IssueWrongType},
		{name: "null", value: nil, wantKind: IssueWrongType},
		{name: "above max", value: json.Number("101"), wantKind: IssueOutOfRange},
		{name: "negative", value: json.Number("-1"), wantKind: IssueOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, issue := rule("intensity", tt.value)
			if tt.wantKind != "" {
				require.NotNil(t, issue)
				assert.Equal(t, tt.wantKind, issue.Kind)
				assert.Equal(t, "intensity", issue.Field)
				assert.Nil(t, got)
				return
			}
			require.Nil(t, issue)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntRule_SafeIntegerRange(t *testing.T) {
	rule := IntRule("gt=0")

	got, issue := rule("alarmThreshold", json.Number("9007199254740991"))
	require.Nil(t, issue)
	assert.Equal(t, int64(9007199254740991), got)

	_, issue = rule("alarmThreshold", json.Number("9007199254740992"))
	require.NotNil(t, issue)
	assert.Equal(t, IssueOutOfRange, issue.Kind)

	_, issue = rule("alarmThreshold", json.Number("1e300"))
	require.NotNil(t, issue)
	assert.Equal(t, IssueOutOfRange, issue.Kind)

	_, issue = rule("alarmThreshold", json.Number("0"))
	require.NotNil(t, issue)
	assert.Equal(t, IssueOutOfRange, issue.Kind)
	assert.Equal(t, "alarmThreshold must be greater than 0", issue.Message)
}

func TestEnumRule(t *testing.T) {
	rule := EnumRule(LightColours...)

	for _, colour := range LightColours {
		got, issue := rule("colour", colour)
		require.Nil(t, issue, colour)
		assert.Equal(t, colour, got)
	}

	_, issue := rule("colour", "Purple")
	require.NotNil(t, issue)
	assert.Equal(t, IssueInvalidEnum, issue.Kind)
	assert.True(t, strings.HasPrefix(issue.Message, "colour must be one of: Red Yellow"))

	_, issue = rule("colour", "red")
	require.NotNil(t, issue)
	assert.Equal(t, IssueInvalidEnum, issue.Kind)

	_, issue = rule("colour", json.Number("1"))
	require.NotNil(t, issue)
	assert.Equal(t, IssueWrongType, issue.Kind)
}

func TestStringRule(t *testing.T) {
	rule := StringRule("max=32")

	got, issue := rule("deviceName", strings.Repeat("a", 32))
	require.Nil(t, issue)
	assert.Len(t, got, 32)

	_, issue = rule("deviceName", strings.Repeat("a", 33))
	require.NotNil(t, issue)
	assert.Equal(t, IssueOutOfRange, issue.Kind)
	assert.Equal(t, "deviceName must be at most 32", issue.Message)

	_, issue = StringRule("required")("ownerId", "")
	require.NotNil(t, issue)
	assert.Equal(t, IssueMissing, issue.Kind)
}

func TestBoolRule(t *testing.T) {
	got, issue := BoolRule()("isPowered", false)
	require.Nil(t, issue)
	assert.Equal(t, false, got)

	_, issue = BoolRule()("isPowered", "false")
	require.NotNil(t, issue)
	assert.Equal(t, IssueWrongType, issue.Kind)
	assert.Equal(t, "isPowered must be a boolean", issue.Message)
}
