package domain

import (
	"maps"
	"strings"
	"time"
)

// DefaultKernelVersion always resolves; it is seeded at startup.
const DefaultKernelVersion = "v1.0"

type GoalAssessmentMethod string

const (
	GoalMethodGAS         GoalAssessmentMethod = "GAS"
	GoalMethodIdealActual GoalAssessmentMethod = "ideal_actual"
	GoalMethodBehaviorGap GoalAssessmentMethod = "behavior_gap"
)

func ValidGoalAssessmentMethod(m string) bool {
	switch GoalAssessmentMethod(m) {
	case GoalMethodGAS, GoalMethodIdealActual, GoalMethodBehaviorGap:
		return true
	}
	return false
}

type BeliefMappingMethod string

const (
	BeliefMethodCAM             BeliefMappingMethod = "CAM"
	BeliefMethodDownwardArrow   BeliefMappingMethod = "downward_arrow"
	BeliefMethodConflictScoring BeliefMappingMethod = "conflict_scoring"
)

func ValidBeliefMappingMethod(m string) bool {
	switch BeliefMappingMethod(m) {
	case BeliefMethodCAM, BeliefMethodDownwardArrow, BeliefMethodConflictScoring:
		return true
	}
	return false
}

// ConflictNormalization selects the denominator of the graph conflict score.
type ConflictNormalization string

const (
	// NormalizeConflictEdges divides by the number of conflicts/blocks edges.
	NormalizeConflictEdges ConflictNormalization = "conflict_edges"
	// NormalizeAllEdges divides by the total edge count.
	NormalizeAllEdges ConflictNormalization = "all_edges"
)

// Kernel defaults
const (
	DefaultEmotionConflictThreshold = 0.7
	DefaultRepeatedFailureThreshold = 2
	DefaultBeliefConflictThreshold  = 0.8
	DefaultCoreBeliefFraction       = 0.2
)

type GoalAssessmentConfig struct {
	Enabled bool                 `json:"enabled" yaml:"enabled"`
	Method  GoalAssessmentMethod `json:"method" yaml:"method"`
}

type BeliefMappingConfig struct {
	Enabled               bool                  `json:"enabled" yaml:"enabled"`
	Method                BeliefMappingMethod   `json:"method" yaml:"method"`
	ConflictNormalization ConflictNormalization `json:"conflict_normalization,omitempty" yaml:"conflict_normalization,omitempty"`
	CoreBeliefFraction    float64               `json:"core_belief_fraction,omitempty" yaml:"core_belief_fraction,omitempty"`
}

type ReflexTriggerConfig struct {
	Enabled                  bool                   `json:"enabled" yaml:"enabled"`
	EmotionConflictThreshold float64                `json:"emotion_conflict_threshold" yaml:"emotion_conflict_threshold"`
	RepeatedFailureThreshold int                    `json:"repeated_failure_threshold" yaml:"repeated_failure_threshold"`
	BeliefConflictThreshold  float64                `json:"belief_conflict_threshold" yaml:"belief_conflict_threshold"`
	PromptTemplates          map[TriggerType]string `json:"prompt_templates,omitempty" yaml:"prompt_templates,omitempty"`
}

type MemoryIntegrationConfig struct {
	Enabled                 bool `json:"enabled" yaml:"enabled"`
	ForwardGoalSummaries    bool `json:"forward_goal_summaries" yaml:"forward_goal_summaries"`
	ForwardGraphSummaries   bool `json:"forward_graph_summaries" yaml:"forward_graph_summaries"`
	ForwardTriggerSummaries bool `json:"forward_trigger_summaries" yaml:"forward_trigger_summaries"`
}

// CognitiveKernelConfig is the versioned bundle of assessment methods and
// thresholds an agent runs with. A version is never modified once stored;
// changing behavior means creating a new version tag.
type CognitiveKernelConfig struct {
	Version           string                  `json:"version" yaml:"version"`
	GoalAssessment    GoalAssessmentConfig    `json:"goal_assessment" yaml:"goal_assessment"`
	BeliefMapping     BeliefMappingConfig     `json:"belief_mapping" yaml:"belief_mapping"`
	ReflexTriggers    ReflexTriggerConfig     `json:"reflex_triggers" yaml:"reflex_triggers"`
	MemoryIntegration MemoryIntegrationConfig `json:"memory_integration" yaml:"memory_integration"`
	CreatedAt         time.Time               `json:"created_at" yaml:"-"`
}

// DefaultKernelConfig returns the built-in v1.0 kernel.
func DefaultKernelConfig() CognitiveKernelConfig {
	return CognitiveKernelConfig{
		Version: DefaultKernelVersion,
		GoalAssessment: GoalAssessmentConfig{
			Enabled: true,
			Method:  GoalMethodGAS,
		},
		BeliefMapping: BeliefMappingConfig{
			Enabled:               true,
			Method:                BeliefMethodCAM,
			ConflictNormalization: NormalizeConflictEdges,
			CoreBeliefFraction:    DefaultCoreBeliefFraction,
		},
		ReflexTriggers: ReflexTriggerConfig{
			Enabled:                  true,
			EmotionConflictThreshold: DefaultEmotionConflictThreshold,
			RepeatedFailureThreshold: DefaultRepeatedFailureThreshold,
			BeliefConflictThreshold:  DefaultBeliefConflictThreshold,
			PromptTemplates:          DefaultPromptTemplates(),
		},
		MemoryIntegration: MemoryIntegrationConfig{
			Enabled:                 true,
			ForwardGoalSummaries:    true,
			ForwardGraphSummaries:   true,
			ForwardTriggerSummaries: false,
		},
	}
}

// KernelDocumentBase is the value a kernel document is decoded onto. Fields a
// document omits keep the DefaultKernelConfig value; version and prompt
// templates start empty.
func KernelDocumentBase() CognitiveKernelConfig {
	k := DefaultKernelConfig()
	k.Version = ""
	k.ReflexTriggers.PromptTemplates = nil
	return k
}

// Normalize fills zero-valued optional fields with their defaults.
func (c *CognitiveKernelConfig) Normalize() {
	c.Version = strings.TrimSpace(c.Version)
	if c.GoalAssessment.Method == "" {
		c.GoalAssessment.Method = GoalMethodGAS
	}
	if c.BeliefMapping.Method == "" {
		c.BeliefMapping.Method = BeliefMethodCAM
	}
	if c.BeliefMapping.ConflictNormalization == "" {
		c.BeliefMapping.ConflictNormalization = NormalizeConflictEdges
	}
	if c.BeliefMapping.CoreBeliefFraction == 0 {
		c.BeliefMapping.CoreBeliefFraction = DefaultCoreBeliefFraction
	}
}

func (c CognitiveKernelConfig) Validate() error {
	if c.Version == "" {
		return Invalid("version", "is required")
	}
	if !ValidGoalAssessmentMethod(string(c.GoalAssessment.Method)) {
		return Invalid("goal_assessment.method", "must be one of GAS, ideal_actual, behavior_gap")
	}
	if !ValidBeliefMappingMethod(string(c.BeliefMapping.Method)) {
		return Invalid("belief_mapping.method", "must be one of CAM, downward_arrow, conflict_scoring")
	}
	switch c.BeliefMapping.ConflictNormalization {
	case NormalizeConflictEdges, NormalizeAllEdges:
	default:
		return Invalid("belief_mapping.conflict_normalization", "must be conflict_edges or all_edges")
	}
	if f := c.BeliefMapping.CoreBeliefFraction; f <= 0 || f > 1 {
		return Invalid("belief_mapping.core_belief_fraction", "must be in (0,1], got %v", f)
	}

	rt := c.ReflexTriggers
	if rt.EmotionConflictThreshold < 0 || rt.EmotionConflictThreshold > 1 {
		return Invalid("reflex_triggers.emotion_conflict_threshold", "must be in [0,1], got %v", rt.EmotionConflictThreshold)
	}
	if rt.RepeatedFailureThreshold < 1 {
		return Invalid("reflex_triggers.repeated_failure_threshold", "must be >= 1, got %d", rt.RepeatedFailureThreshold)
	}
	if rt.BeliefConflictThreshold < 0 || rt.BeliefConflictThreshold > 1 {
		return Invalid("reflex_triggers.belief_conflict_threshold", "must be in [0,1], got %v", rt.BeliefConflictThreshold)
	}
	for t := range rt.PromptTemplates {
		if !ValidTriggerType(string(t)) {
			return Invalid("reflex_triggers.prompt_templates", "unknown trigger type %q", t)
		}
	}
	return nil
}

// PromptTemplate returns the template for t, falling back to the built-in one.
func (c CognitiveKernelConfig) PromptTemplate(t TriggerType) string {
	if tmpl, ok := c.ReflexTriggers.PromptTemplates[t]; ok && tmpl != "" {
		return tmpl
	}
	return DefaultPromptTemplates()[t]
}

// Clone returns a deep copy so cached configs cannot be altered by callers.
func (c CognitiveKernelConfig) Clone() CognitiveKernelConfig {
	out := c
	if c.ReflexTriggers.PromptTemplates != nil {
		out.ReflexTriggers.PromptTemplates = maps.Clone(c.ReflexTriggers.PromptTemplates)
	}
	return out
}
