package domain

import (
	"time"

	"github.com/google/uuid"
)

type MetricType string

const (
	MetricEmotionConflict MetricType = "emotion_conflict"
	MetricGoalProgress    MetricType = "goal_progress"
	MetricBeliefShift     MetricType = "belief_shift"
	MetricMotivationDrop  MetricType = "motivation_drop"
	MetricRepeatedFailure MetricType = "repeated_failure"
)

func ValidMetricType(t string) bool {
	switch MetricType(t) {
	case MetricEmotionConflict, MetricGoalProgress, MetricBeliefShift, MetricMotivationDrop, MetricRepeatedFailure:
		return true
	}
	return false
}

// ThresholdFor resolves the kernel threshold for a metric type. Metric types
// without a fixed threshold return ok=false; they can only exceed a threshold
// supplied explicitly by the caller.
func ThresholdFor(cfg ReflexTriggerConfig, t MetricType) (threshold float64, ok bool) {
	switch t {
	case MetricEmotionConflict:
		return cfg.EmotionConflictThreshold, true
	case MetricRepeatedFailure:
		return float64(cfg.RepeatedFailureThreshold), true
	case MetricBeliefShift, MetricGoalProgress, MetricMotivationDrop:
		return 0, false
	}
	return 0, false
}

// MetricTriggers maps metric types to the trigger category they feed.
var MetricTriggers = map[MetricType]TriggerType{
	MetricEmotionConflict: TriggerEmotionConflict,
	MetricRepeatedFailure: TriggerRepeatedFailure,
	MetricBeliefShift:     TriggerBeliefConflict,
}

// SuggestedAction looks up the action label for a metric type.
func SuggestedAction(t MetricType) (string, bool) {
	trigger, ok := MetricTriggers[t]
	if !ok {
		return "", false
	}
	action, ok := TriggerActions[trigger]
	return action, ok
}

// CognitiveMetric is one append-only observation.
type CognitiveMetric struct {
	ID       uuid.UUID  `json:"id"`
	TenantID string     `json:"tenant_id"`
	UserID   string     `json:"user_id"`
	AgentID  string     `json:"agent_id"`
	Type     MetricType `json:"metric_type"`
	Value    float64    `json:"metric_value"`
	// Threshold is the threshold active at measurement time, nil when the
	// metric type has none and no override was supplied.
	Threshold       *float64       `json:"threshold_value"`
	Exceeded        bool           `json:"threshold_exceeded"`
	SuggestedAction string         `json:"suggested_action,omitempty"`
	ContextData     map[string]any `json:"context_data,omitempty"`
	KernelVersion   string         `json:"kernel_version"`
	MeasuredAt      time.Time      `json:"measured_at"`
}

func (m CognitiveMetric) Subject() Subject {
	return Subject{TenantID: m.TenantID, UserID: m.UserID, AgentID: m.AgentID}
}
