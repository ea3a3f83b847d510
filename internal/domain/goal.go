package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type GoalCategory string

const (
	GoalCategoryCareer       GoalCategory = "career"
	GoalCategoryFinancial    GoalCategory = "financial"
	GoalCategoryHealth       GoalCategory = "health"
	GoalCategoryRelationship GoalCategory = "relationship"
	GoalCategoryPersonal     GoalCategory = "personal"
	GoalCategorySpiritual    GoalCategory = "spiritual"
	GoalCategoryOther        GoalCategory = "other"
)

func ValidGoalCategory(c string) bool {
	switch GoalCategory(c) {
	case GoalCategoryCareer, GoalCategoryFinancial, GoalCategoryHealth, GoalCategoryRelationship,
		GoalCategoryPersonal, GoalCategorySpiritual, GoalCategoryOther:
		return true
	}
	return false
}

// GAS scale bounds: -2 much less than expected, 0 baseline, +2 much better.
const (
	GASMin    = -2
	GASMax    = 2
	RatingMin = 0
	RatingMax = 100
)

// GoalInput is one check-in for a goal, as supplied by the intake process.
type GoalInput struct {
	GoalText          string       `json:"goal_text"`
	GoalCategory      GoalCategory `json:"goal_category"`
	GASCurrentLevel   int          `json:"gas_current_level"`
	GASTargetLevel    int          `json:"gas_target_level"`
	IdealStateRating  int          `json:"ideal_state_rating"`
	ActualStateRating int          `json:"actual_state_rating"`
	AttemptCount      int          `json:"attempt_count"`
	SuccessCount      int          `json:"success_count"`
	ConfidenceScore   float64      `json:"confidence_score"`
	MotivationScore   float64      `json:"motivation_score"`
	SessionRef        string       `json:"session_ref,omitempty"`
	MeasuredAt        time.Time    `json:"measured_at,omitzero"`
}

func (in GoalInput) Validate() error {
	if strings.TrimSpace(in.GoalText) == "" {
		return Invalid("goal_text", "is required")
	}
	if in.GoalCategory != "" && !ValidGoalCategory(string(in.GoalCategory)) {
		return Invalid("goal_category", "unknown category %q", in.GoalCategory)
	}
	if in.GASCurrentLevel < GASMin || in.GASCurrentLevel > GASMax {
		return Invalid("gas_current_level", "must be in {-2,-1,0,1,2}, got %d", in.GASCurrentLevel)
	}
	if in.GASTargetLevel < GASMin || in.GASTargetLevel > GASMax {
		return Invalid("gas_target_level", "must be in {-2,-1,0,1,2}, got %d", in.GASTargetLevel)
	}
	if in.IdealStateRating < RatingMin || in.IdealStateRating > RatingMax {
		return Invalid("ideal_state_rating", "must be in [0,100], got %d", in.IdealStateRating)
	}
	if in.ActualStateRating < RatingMin || in.ActualStateRating > RatingMax {
		return Invalid("actual_state_rating", "must be in [0,100], got %d", in.ActualStateRating)
	}
	if in.AttemptCount < 0 {
		return Invalid("attempt_count", "must be non-negative, got %d", in.AttemptCount)
	}
	if in.SuccessCount < 0 {
		return Invalid("success_count", "must be non-negative, got %d", in.SuccessCount)
	}
	if in.SuccessCount > in.AttemptCount {
		return Invalid("success_count", "must not exceed attempt_count (%d > %d)", in.SuccessCount, in.AttemptCount)
	}
	if in.ConfidenceScore < 0 || in.ConfidenceScore > 1 {
		return Invalid("confidence_score", "must be in [0,1], got %v", in.ConfidenceScore)
	}
	if in.MotivationScore < 0 || in.MotivationScore > 1 {
		return Invalid("motivation_score", "must be in [0,1], got %v", in.MotivationScore)
	}
	return nil
}

// GoalAssessment is one immutable row in a goal's history. Newer rows for the
// same goal_text supersede older ones on read; nothing is updated in place.
type GoalAssessment struct {
	ID                uuid.UUID            `json:"id"`
	TenantID          string               `json:"tenant_id"`
	UserID            string               `json:"user_id"`
	AgentID           string               `json:"agent_id"`
	GoalText          string               `json:"goal_text"`
	GoalCategory      GoalCategory         `json:"goal_category"`
	GASCurrentLevel   int                  `json:"gas_current_level"`
	GASTargetLevel    int                  `json:"gas_target_level"`
	IdealStateRating  int                  `json:"ideal_state_rating"`
	ActualStateRating int                  `json:"actual_state_rating"`
	AttemptCount      int                  `json:"attempt_count"`
	SuccessCount      int                  `json:"success_count"`
	ConfidenceScore   float64              `json:"confidence_score"`
	MotivationScore   float64              `json:"motivation_score"`
	ProgressDelta     int                  `json:"progress_delta"`
	GapScore          int                  `json:"gap_score"`
	KernelVersion     string               `json:"kernel_version"`
	Method            GoalAssessmentMethod `json:"assessment_method"`
	SessionRef        string               `json:"session_ref,omitempty"`
	MeasuredAt        time.Time            `json:"measured_at"`
}

// NewGoalAssessment builds a row from validated input and computes the
// derived fields.
func NewGoalAssessment(s Subject, in GoalInput) GoalAssessment {
	category := in.GoalCategory
	if category == "" {
		category = GoalCategoryOther
	}
	return GoalAssessment{
		TenantID:          s.TenantID,
		UserID:            s.UserID,
		AgentID:           s.AgentID,
		GoalText:          strings.TrimSpace(in.GoalText),
		GoalCategory:      category,
		GASCurrentLevel:   in.GASCurrentLevel,
		GASTargetLevel:    in.GASTargetLevel,
		IdealStateRating:  in.IdealStateRating,
		ActualStateRating: in.ActualStateRating,
		AttemptCount:      in.AttemptCount,
		SuccessCount:      in.SuccessCount,
		ConfidenceScore:   in.ConfidenceScore,
		MotivationScore:   in.MotivationScore,
		ProgressDelta:     ProgressDelta(in.GASCurrentLevel, in.GASTargetLevel),
		GapScore:          GapScore(in.IdealStateRating, in.ActualStateRating),
		SessionRef:        in.SessionRef,
		MeasuredAt:        in.MeasuredAt,
	}
}

// ProgressDelta is negative when the goal is behind target.
func ProgressDelta(current, target int) int { return current - target }

// GapScore is negative when the actual state exceeds the ideal, which means
// the goal is met or exceeded.
func GapScore(ideal, actual int) int { return ideal - actual }

// FailureCount is the number of unsuccessful attempts.
func (g GoalAssessment) FailureCount() int { return g.AttemptCount - g.SuccessCount }

func (g GoalAssessment) Subject() Subject {
	return Subject{TenantID: g.TenantID, UserID: g.UserID, AgentID: g.AgentID}
}
