package models

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_Validation(t *testing.T) {
	validate := validator.New()

	tests := []struct {
		name     string
		scenario Scenario
		field    string
	}{
		{name: "valid", scenario: Scenario{Name: "Order sync", OwnerID: "o", Status: ScenarioStatusActive}},
		{name: "short name", scenario: Scenario{Name: "Or", OwnerID: "o", Status: ScenarioStatusActive}, field: "Name"},
		{name: "missing owner", scenario: Scenario{Name: "Order sync", Status: ScenarioStatusActive}, field: "OwnerID"},
		{name: "unknown status", scenario: Scenario{Name: "Order sync", OwnerID: "o", Status: "paused"}, field: "Status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.scenario)
			if tt.field == "" {
				assert.NoError(t, err)

				return
			}

			var validationErrors validator.ValidationErrors
			require.ErrorAs(t, err, &validationErrors)
			assert.Equal(t, tt.field, validationErrors[0].Field())
		})
	}
}

func TestScenario_IsActive(t *testing.T) {
	assert.True(t, (&Scenario{Status: ScenarioStatusActive}).IsActive())
	assert.False(t, (&Scenario{Status: ScenarioStatusInactive}).IsActive())
}

func TestScenarioNode_IsLocked(t *testing.T) {
	node := &ScenarioNode{LockedProperties: []string{"config", "label"}}

	assert.True(t, node.IsLocked("config"))
	assert.False(t, node.IsLocked("order"))
}

func TestScenarioNodeConnection_Follows(t *testing.T) {
	tests := []struct {
		branch  string
		outcome string
		follows bool
	}{
		{branch: "", outcome: "", follows: true},
		{branch: "", outcome: "true", follows: true},
		{branch: DefaultBranch, outcome: "false", follows: true},
		{branch: "true", outcome: "true", follows: true},
		{branch: "true", outcome: "false", follows: false},
		{branch: "true", outcome: "", follows: false},
		{branch: "gold", outcome: "otherwise", follows: false},
	}

	for _, tt := range tests {
		edge := &ScenarioNodeConnection{Branch: tt.branch}
		assert.Equal(t, tt.follows, edge.Follows(tt.outcome), "branch %q outcome %q", tt.branch, tt.outcome)
	}
}

func TestLogStatus_IsFinal(t *testing.T) {
	assert.False(t, LogStatusRunning.IsFinal())

	for _, status := range []LogStatus{LogStatusSuccess, LogStatusError, LogStatusSkipped, LogStatusCancelled} {
		assert.True(t, status.IsFinal(), status)
	}
}

func TestRequestInfo_Masked(t *testing.T) {
	info := &RequestInfo{
		Endpoint: "https://api.example.com/orders",
		Method:   "POST",
		Headers: map[string]string{
			"Authorization":   "Bearer abc",
			"X-Refresh-Token": "xyz",
			"X-Client-Secret": "s",
			"Content-Type":    "application/json",
		},
	}

	masked := info.Masked()

	assert.Equal(t, MaskedHeaderValue, masked.Headers["Authorization"])
	assert.Equal(t, MaskedHeaderValue, masked.Headers["X-Refresh-Token"])
	assert.Equal(t, MaskedHeaderValue, masked.Headers["X-Client-Secret"])
	assert.Equal(t, "application/json", masked.Headers["Content-Type"])
	assert.Equal(t, "Bearer abc", info.Headers["Authorization"], "original must not change")

	var nilInfo *RequestInfo
	assert.Nil(t, nilInfo.Masked())

	custom := (&RequestInfo{Headers: map[string]string{"X-Shop-Key": "sk_live_1", "Accept": "*/*"}}).Masked("x-shop-key")
	assert.Equal(t, MaskedHeaderValue, custom.Headers["X-Shop-Key"])
	assert.Equal(t, "*/*", custom.Headers["Accept"])
}

func TestLogFilter_Matches(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := &AutomationLogEntry{
		ScenarioID: "s-1",
		RunID:      "r-1",
		NodeID:     "n-1",
		Status:     LogStatusSuccess,
		Timestamp:  base,
	}

	before := base.Add(-time.Minute)
	after := base.Add(time.Minute)

	tests := []struct {
		name    string
		filter  LogFilter
		matches bool
	}{
		{name: "empty", filter: LogFilter{}, matches: true},
		{name: "all fields", filter: LogFilter{ScenarioID: "s-1", RunID: "r-1", NodeID: "n-1", Status: LogStatusSuccess}, matches: true},
		{name: "other run", filter: LogFilter{RunID: "r-2"}, matches: false},
		{name: "other status", filter: LogFilter{Status: LogStatusError}, matches: false},
		{name: "inside window", filter: LogFilter{From: &before, To: &after}, matches: true},
		{name: "from after entry", filter: LogFilter{From: &after}, matches: false},
		{name: "to before entry", filter: LogFilter{To: &before}, matches: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.matches, tt.filter.Matches(entry))
		})
	}
}

func TestConnection_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	assert.False(t, (&Connection{}).IsExpired(now))
	assert.True(t, (&Connection{ExpiresAt: &past}).IsExpired(now))
	assert.True(t, (&Connection{ExpiresAt: &now}).IsExpired(now))
	assert.False(t, (&Connection{ExpiresAt: &future}).IsExpired(now))
}

func TestConnection_Redacted(t *testing.T) {
	connection := &Connection{
		ID:                "c-1",
		Ciphertext:        []byte("sealed"),
		Credentials:       map[string]string{"api_key": "plain"},
		MaskedCredentials: map[string]string{"api_key": "****lain"},
	}

	redacted := connection.Redacted()

	assert.Nil(t, redacted.Ciphertext)
	assert.Nil(t, redacted.Credentials)
	assert.Equal(t, "****lain", redacted.MaskedCredentials["api_key"])
	assert.Equal(t, []byte("sealed"), connection.Ciphertext, "original must not change")
}
