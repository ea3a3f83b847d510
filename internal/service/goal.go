package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"go.uber.org/zap"
)

// GoalService records GAS check-ins. History is append-only: a check-in for
// an existing goal adds a row, and readers take the newest one.
type GoalService struct {
	store   domain.GoalAssessmentStore
	metrics MetricRecorder
	sink    domain.SummarySink
	logger  *zap.Logger
}

func NewGoalService(s domain.GoalAssessmentStore, logger *zap.Logger) *GoalService {
	return &GoalService{store: s, logger: logger}
}

// SetMetricRecorder enables derived metrics after each check-in.
func (s *GoalService) SetMetricRecorder(m MetricRecorder) {
	s.metrics = m
}

func (s *GoalService) SetSummarySink(sink domain.SummarySink) {
	s.sink = sink
}

// Record validates and appends one check-in, then emits the derived
// goal_progress, repeated_failure and motivation_drop metrics.
func (s *GoalService) Record(ctx context.Context, kernel domain.CognitiveKernelConfig, subj domain.Subject, in domain.GoalInput) (*domain.GoalAssessment, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	if !kernel.GoalAssessment.Enabled {
		return nil, ErrGoalAssessmentDisabled
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	g := domain.NewGoalAssessment(subj, in)
	g.KernelVersion = kernel.Version
	g.Method = kernel.GoalAssessment.Method

	var previous *domain.GoalAssessment
	if s.metrics != nil {
		prev, err := s.store.GetLatest(ctx, subj, g.GoalText)
		switch {
		case err == nil:
			previous = prev
		case !errors.Is(err, store.ErrNotFound):
			s.logger.Warn("failed to read previous goal assessment", zap.String("goal_text", g.GoalText), zap.Error(err))
		}
	}

	if err := s.store.Create(ctx, &g); err != nil {
		return nil, domain.NewStorageError("create goal assessment", err)
	}

	s.recordDerived(ctx, kernel, &g, previous)

	if forwards(kernel, domain.SummaryGoal) {
		publishSummary(ctx, s.sink, s.logger, subj, g.SessionRef, domain.SummaryGoal, goalSummary(&g))
	}
	return &g, nil
}

// ListActive returns the newest assessment per goal, most recent first. A
// subject with no assessments at all is reported as not found.
func (s *GoalService) ListActive(ctx context.Context, subj domain.Subject) ([]domain.GoalAssessment, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	goals, err := s.store.ListLatest(ctx, subj)
	if err != nil {
		return nil, domain.NewStorageError("list goal assessments", err)
	}
	if len(goals) == 0 {
		return nil, ErrNoAssessments
	}
	return goals, nil
}

// History returns every check-in for one goal, oldest first.
func (s *GoalService) History(ctx context.Context, subj domain.Subject, goalText string) ([]domain.GoalAssessment, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	goalText = strings.TrimSpace(goalText)
	if goalText == "" {
		return nil, domain.Invalid("goal_text", "is required")
	}
	goals, err := s.store.ListHistory(ctx, subj, goalText)
	if err != nil {
		return nil, domain.NewStorageError("list goal history", err)
	}
	if len(goals) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGoalNotFound, goalText)
	}
	return goals, nil
}

// GoalProgress is the goal_progress metric for a row under the given method.
// Zero or positive means on or ahead of target.
func GoalProgress(method domain.GoalAssessmentMethod, g *domain.GoalAssessment) float64 {
	switch method {
	case domain.GoalMethodIdealActual:
		return -float64(g.GapScore) / 100
	case domain.GoalMethodBehaviorGap:
		if g.AttemptCount == 0 {
			return 0
		}
		return float64(g.SuccessCount)/float64(g.AttemptCount) - 1
	default:
		return float64(g.ProgressDelta)
	}
}

func (s *GoalService) recordDerived(ctx context.Context, kernel domain.CognitiveKernelConfig, g *domain.GoalAssessment, previous *domain.GoalAssessment) {
	if s.metrics == nil {
		return
	}
	subj := g.Subject()
	refs := map[string]any{
		"source":             "goal_assessment",
		"goal_assessment_id": g.ID.String(),
		"goal_text":          g.GoalText,
	}

	inputs := []MetricInput{
		{Type: domain.MetricGoalProgress, Value: GoalProgress(g.Method, g)},
		{Type: domain.MetricRepeatedFailure, Value: float64(g.FailureCount())},
	}
	if previous != nil {
		if drop := previous.MotivationScore - g.MotivationScore; drop > 0 {
			inputs = append(inputs, MetricInput{Type: domain.MetricMotivationDrop, Value: drop})
		}
	}

	for _, in := range inputs {
		in.ContextData = refs
		in.MeasuredAt = g.MeasuredAt
		if _, err := s.metrics.Record(ctx, kernel, subj, in); err != nil {
			s.logger.Warn("failed to record derived goal metric",
				zap.String("agent_id", subj.AgentID),
				zap.String("metric_type", string(in.Type)),
				zap.Error(err))
		}
	}
}

func goalSummary(g *domain.GoalAssessment) string {
	return fmt.Sprintf("Goal %q (%s): GAS level %+d against target %+d (progress %+d), ideal/actual gap %d, %d of %d attempts succeeded, motivation %.2f.",
		g.GoalText, g.GoalCategory, g.GASCurrentLevel, g.GASTargetLevel, g.ProgressDelta,
		g.GapScore, g.SuccessCount, g.AttemptCount, g.MotivationScore)
}
