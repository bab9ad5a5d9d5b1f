package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNodeStatus(t *testing.T) {
	tests := []struct {
		in       string
		expected NodeStatus
	}{
		{"online", NodeOnline},
		{"offline", NodeOffline},
		{"", NodeUnknown},
		{"ONLINE", NodeUnknown},
		{"rebooting", NodeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ParseNodeStatus(tt.in), tt.in)
	}
}

func TestNodeDisplayName(t *testing.T) {
	assert.Equal(t, "North Field", Node{NodeID: "node_1", NodeName: "North Field"}.DisplayName())
	assert.Equal(t, "node_1", Node{NodeID: "node_1"}.DisplayName())
}

func TestThresholdsIsEmpty(t *testing.T) {
	assert.True(t, Thresholds{}.IsEmpty())

	low := 30.0
	th := Thresholds{MoistureMin: &low}
	assert.False(t, th.IsEmpty())
	assert.True(t, th.Moisture().IsSet())
	assert.False(t, th.PH().IsSet())
}

func TestDefaultValues(t *testing.T) {
	assert.Equal(t, 20, DefaultHistoryLimit)
	assert.Equal(t, 10, DefaultAlertLimit)
	assert.Equal(t, "N/A", MissingTimeLabel)
	assert.Equal(t, "sprouthub_language", LanguagePreferenceKey)
	assert.True(t, DefaultNotificationTTL > 0)
	assert.Contains(t, MetricNodeMoisture, "sprouthub_")
}
