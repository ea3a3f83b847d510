package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ReflexEngine turns the current cognitive state of a subject into
// recommended interventions. It holds no state between calls: every
// evaluation re-reads metrics, goals and the latest graph, and the same
// state always yields the same triggers.
type ReflexEngine struct {
	goals   domain.GoalAssessmentStore
	graphs  domain.BeliefGraphStore
	metrics domain.MetricStore
	sink    domain.SummarySink
	logger  *zap.Logger
}

func NewReflexEngine(goals domain.GoalAssessmentStore, graphs domain.BeliefGraphStore, metrics domain.MetricStore, logger *zap.Logger) *ReflexEngine {
	return &ReflexEngine{goals: goals, graphs: graphs, metrics: metrics, logger: logger}
}

func (e *ReflexEngine) SetSummarySink(sink domain.SummarySink) {
	e.sink = sink
}

// reflexState is one consistent-enough read of everything the checks need.
// Missing data is nil.
type reflexState struct {
	emotion *domain.CognitiveMetric
	goals   []domain.GoalAssessment
	graph   *domain.BeliefGraph
}

// Evaluate runs the emotion, repeated-failure and belief checks in that order
// and returns every trigger that fires. A kernel with reflex triggers
// disabled yields an empty list without touching storage.
func (e *ReflexEngine) Evaluate(ctx context.Context, kernel domain.CognitiveKernelConfig, subj domain.Subject) ([]domain.ReflexTrigger, error) {
	triggers := []domain.ReflexTrigger{}
	if !kernel.ReflexTriggers.Enabled {
		return triggers, nil
	}
	if err := subj.Validate(); err != nil {
		return nil, err
	}

	state, err := e.read(ctx, subj)
	if err != nil {
		return nil, err
	}

	cfg := kernel.ReflexTriggers
	if m := state.emotion; m != nil && m.Value >= cfg.EmotionConflictThreshold {
		id := m.ID
		triggers = append(triggers, newTrigger(kernel, domain.TriggerEmotionConflict, domain.ContextRefs{
			MetricID:  &id,
			Value:     m.Value,
			Threshold: cfg.EmotionConflictThreshold,
		}))
	}

	for _, g := range state.goals {
		failures := g.FailureCount()
		if failures < cfg.RepeatedFailureThreshold {
			continue
		}
		id := g.ID
		triggers = append(triggers, newTrigger(kernel, domain.TriggerRepeatedFailure, domain.ContextRefs{
			GoalRef:   g.GoalText,
			GoalID:    &id,
			Value:     float64(failures),
			Threshold: float64(cfg.RepeatedFailureThreshold),
		}))
	}

	if g := state.graph; g != nil && g.ConflictScore >= cfg.BeliefConflictThreshold {
		id := g.ID
		triggers = append(triggers, newTrigger(kernel, domain.TriggerBeliefConflict, domain.ContextRefs{
			TensionNodes: slices.Clone(g.TensionNodes),
			GraphID:      &id,
			Value:        g.ConflictScore,
			Threshold:    cfg.BeliefConflictThreshold,
		}))
	}

	if len(triggers) > 0 {
		e.logger.Info("reflex triggers fired",
			zap.String("agent_id", subj.AgentID),
			zap.String("user_id", subj.UserID),
			zap.Int("count", len(triggers)),
		)
		if forwards(kernel, domain.SummaryTrigger) {
			publishSummary(ctx, e.sink, e.logger, subj, "", domain.SummaryTrigger, triggerSummary(triggers))
		}
	}
	return triggers, nil
}

// read fetches the three inputs concurrently. The reads are independent and
// need not see a single snapshot.
func (e *ReflexEngine) read(ctx context.Context, subj domain.Subject) (reflexState, error) {
	var state reflexState
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := e.metrics.GetLatestByType(gctx, subj, domain.MetricEmotionConflict)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return domain.NewStorageError("get latest emotion metric", err)
		}
		state.emotion = m
		return nil
	})
	g.Go(func() error {
		goals, err := e.goals.ListLatest(gctx, subj)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return domain.NewStorageError("list goal assessments", err)
		}
		state.goals = goals
		return nil
	})
	g.Go(func() error {
		graph, err := e.graphs.GetLatest(gctx, subj)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return domain.NewStorageError("get latest belief graph", err)
		}
		state.graph = graph
		return nil
	})

	if err := g.Wait(); err != nil {
		return reflexState{}, err
	}
	return state, nil
}

func newTrigger(kernel domain.CognitiveKernelConfig, t domain.TriggerType, refs domain.ContextRefs) domain.ReflexTrigger {
	return domain.ReflexTrigger{
		Type:           t,
		Action:         domain.TriggerActions[t],
		PromptTemplate: kernel.PromptTemplate(t),
		ContextRefs:    refs,
	}
}

func triggerSummary(triggers []domain.ReflexTrigger) string {
	parts := make([]string, 0, len(triggers))
	for _, t := range triggers {
		switch {
		case t.ContextRefs.GoalRef != "":
			parts = append(parts, fmt.Sprintf("%s on %q (%s)", t.Type, t.ContextRefs.GoalRef, t.Action))
		default:
			parts = append(parts, fmt.Sprintf("%s at %.2f (%s)", t.Type, t.ContextRefs.Value, t.Action))
		}
	}
	return "Reflex triggers: " + strings.Join(parts, "; ") + "."
}
