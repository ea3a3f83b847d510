package domain

import "github.com/google/uuid"

type TriggerType string

const (
	TriggerEmotionConflict TriggerType = "emotion_conflict"
	TriggerRepeatedFailure TriggerType = "repeated_failure"
	TriggerBeliefConflict  TriggerType = "belief_conflict"
)

func ValidTriggerType(t string) bool {
	switch TriggerType(t) {
	case TriggerEmotionConflict, TriggerRepeatedFailure, TriggerBeliefConflict:
		return true
	}
	return false
}

// TriggerActions is the fixed category -> recommended action table.
var TriggerActions = map[TriggerType]string{
	TriggerEmotionConflict: "Initiate belief reassessment conversation",
	TriggerRepeatedFailure: "Suggest breaking goal into smaller steps",
	TriggerBeliefConflict:  "Facilitate belief reconciliation dialogue",
}

// DefaultPromptTemplates returns the v1.0 templates. Placeholders in braces
// are filled by the conversation layer from the trigger's context refs.
func DefaultPromptTemplates() map[TriggerType]string {
	return map[TriggerType]string{
		TriggerEmotionConflict: "The user is showing strong emotional conflict (level {value}). " +
			"Gently explore which beliefs are producing these mixed feelings before moving on.",
		TriggerRepeatedFailure: "The user has struggled repeatedly with \"{goal_ref}\". " +
			"Acknowledge the effort, then help them break the goal into one small, concrete next step.",
		TriggerBeliefConflict: "Some of the user's beliefs are pulling against each other: {tension_nodes}. " +
			"Invite them to look at both sides and find a way of holding them that supports the goal.",
	}
}

// ReflexTrigger is a recommended intervention. It is the only output consumed
// by the conversation layer.
type ReflexTrigger struct {
	Type           TriggerType `json:"type"`
	Action         string      `json:"action"`
	PromptTemplate string      `json:"prompt_template"`
	ContextRefs    ContextRefs `json:"context_refs"`
}

// ContextRefs links a trigger back to the data that fired it.
type ContextRefs struct {
	GoalRef      string     `json:"goal_ref,omitempty"`
	TensionNodes []string   `json:"tension_nodes,omitempty"`
	MetricID     *uuid.UUID `json:"metric_id,omitempty"`
	GoalID       *uuid.UUID `json:"goal_assessment_id,omitempty"`
	GraphID      *uuid.UUID `json:"graph_id,omitempty"`
	Value        float64    `json:"value"`
	Threshold    float64    `json:"threshold"`
}
