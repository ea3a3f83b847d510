package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GraphInput is the raw content of one CAM assessment.
type GraphInput struct {
	Nodes      []domain.BeliefNode `json:"nodes" yaml:"nodes"`
	Edges      []domain.BeliefEdge `json:"edges" yaml:"edges"`
	SessionRef string              `json:"session_ref,omitempty" yaml:"session_ref,omitempty"`
}

// BeliefGraphService stores CAM snapshots. Every build or extension creates a
// new snapshot; earlier ones are never touched.
type BeliefGraphService struct {
	store   domain.BeliefGraphStore
	metrics MetricRecorder
	sink    domain.SummarySink
	logger  *zap.Logger
}

func NewBeliefGraphService(s domain.BeliefGraphStore, logger *zap.Logger) *BeliefGraphService {
	return &BeliefGraphService{store: s, logger: logger}
}

// SetMetricRecorder enables the derived emotion_conflict and belief_shift
// metrics after each snapshot.
func (s *BeliefGraphService) SetMetricRecorder(m MetricRecorder) {
	s.metrics = m
}

func (s *BeliefGraphService) SetSummarySink(sink domain.SummarySink) {
	s.sink = sink
}

// Build analyses the input and stores it as the subject's newest snapshot.
// Invalid input writes nothing.
func (s *BeliefGraphService) Build(ctx context.Context, kernel domain.CognitiveKernelConfig, subj domain.Subject, in GraphInput) (*domain.BeliefGraph, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	if !kernel.BeliefMapping.Enabled {
		return nil, ErrBeliefMappingDisabled
	}

	previous, err := s.latestOrNil(ctx, subj)
	if err != nil {
		s.logger.Warn("failed to read previous belief graph", zap.String("agent_id", subj.AgentID), zap.Error(err))
	}
	return s.create(ctx, kernel, subj, in, previous)
}

// Extend builds a new snapshot from the latest one plus in. A node whose id
// already exists replaces the earlier node; an edge with the same source,
// target and relationship replaces the earlier edge.
func (s *BeliefGraphService) Extend(ctx context.Context, kernel domain.CognitiveKernelConfig, subj domain.Subject, in GraphInput) (*domain.BeliefGraph, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	if !kernel.BeliefMapping.Enabled {
		return nil, ErrBeliefMappingDisabled
	}

	latest, err := s.latestOrNil(ctx, subj)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, ErrGraphNotFound
	}

	merged := GraphInput{
		Nodes:      mergeNodes(latest.Nodes, in.Nodes),
		Edges:      mergeEdges(latest.Edges, in.Edges),
		SessionRef: in.SessionRef,
	}
	return s.create(ctx, kernel, subj, merged, latest)
}

func (s *BeliefGraphService) Latest(ctx context.Context, subj domain.Subject) (*domain.BeliefGraph, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	g, err := s.latestOrNil(ctx, subj)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrGraphNotFound
	}
	return g, nil
}

func (s *BeliefGraphService) Get(ctx context.Context, subj domain.Subject, id uuid.UUID) (*domain.BeliefGraph, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	g, err := s.store.GetByID(ctx, id, subj)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, id)
		}
		return nil, domain.NewStorageError("get belief graph", err)
	}
	return g, nil
}

// Shift compares the two most recent snapshots.
func (s *BeliefGraphService) Shift(ctx context.Context, subj domain.Subject) (*domain.BeliefShift, error) {
	if err := subj.Validate(); err != nil {
		return nil, err
	}
	graphs, err := s.store.List(ctx, subj, 2)
	if err != nil {
		return nil, domain.NewStorageError("list belief graphs", err)
	}
	switch len(graphs) {
	case 0:
		return nil, ErrGraphNotFound
	case 1:
		return nil, ErrNoPreviousGraph
	}
	shift := CompareGraphs(graphs[1], graphs[0])
	return &shift, nil
}

func (s *BeliefGraphService) create(ctx context.Context, kernel domain.CognitiveKernelConfig, subj domain.Subject, in GraphInput, previous *domain.BeliefGraph) (*domain.BeliefGraph, error) {
	g, err := BuildBeliefGraph(in.Nodes, in.Edges, GraphOptionsFor(kernel))
	if err != nil {
		return nil, err
	}
	g.SetSubject(subj)
	g.KernelVersion = kernel.Version
	g.Method = kernel.BeliefMapping.Method
	g.SessionRef = in.SessionRef

	if err := s.store.Create(ctx, &g); err != nil {
		return nil, domain.NewStorageError("create belief graph", err)
	}

	s.recordDerived(ctx, kernel, &g, previous)

	if forwards(kernel, domain.SummaryGraph) {
		publishSummary(ctx, s.sink, s.logger, subj, g.SessionRef, domain.SummaryGraph, graphSummary(&g))
	}
	return &g, nil
}

func (s *BeliefGraphService) latestOrNil(ctx context.Context, subj domain.Subject) (*domain.BeliefGraph, error) {
	g, err := s.store.GetLatest(ctx, subj)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, domain.NewStorageError("get latest belief graph", err)
	}
	return g, nil
}

func (s *BeliefGraphService) recordDerived(ctx context.Context, kernel domain.CognitiveKernelConfig, g *domain.BeliefGraph, previous *domain.BeliefGraph) {
	if s.metrics == nil {
		return
	}

	var inputs []MetricInput
	if v, ok := EmotionConflict(*g); ok {
		inputs = append(inputs, MetricInput{
			Type:        domain.MetricEmotionConflict,
			Value:       v,
			ContextData: map[string]any{"source": "belief_graph", "graph_id": g.ID.String()},
		})
	}
	if previous != nil {
		shift := CompareGraphs(*previous, *g)
		inputs = append(inputs, MetricInput{
			Type:  domain.MetricBeliefShift,
			Value: shift.Magnitude,
			ContextData: map[string]any{
				"source":            "belief_graph",
				"graph_id":          g.ID.String(),
				"previous_graph_id": previous.ID.String(),
				"conflict_delta":    shift.ConflictDelta,
			},
		})
	}

	subj := g.Subject()
	for _, in := range inputs {
		in.MeasuredAt = g.CreatedAt
		if _, err := s.metrics.Record(ctx, kernel, subj, in); err != nil {
			s.logger.Warn("failed to record derived graph metric",
				zap.String("agent_id", subj.AgentID),
				zap.String("metric_type", string(in.Type)),
				zap.Error(err))
		}
	}
}

func mergeNodes(base, added []domain.BeliefNode) []domain.BeliefNode {
	out := make([]domain.BeliefNode, len(base), len(base)+len(added))
	copy(out, base)
	pos := make(map[string]int, len(out))
	for i, n := range out {
		pos[n.ID] = i
	}
	for _, n := range added {
		if i, ok := pos[strings.TrimSpace(n.ID)]; ok {
			out[i] = n
			continue
		}
		pos[strings.TrimSpace(n.ID)] = len(out)
		out = append(out, n)
	}
	return out
}

type edgeKey struct {
	source, target string
	rel            domain.Relationship
}

func mergeEdges(base, added []domain.BeliefEdge) []domain.BeliefEdge {
	out := make([]domain.BeliefEdge, len(base), len(base)+len(added))
	copy(out, base)
	pos := make(map[edgeKey]int, len(out))
	for i, e := range out {
		pos[edgeKey{e.SourceID, e.TargetID, e.Relationship}] = i
	}
	for _, e := range added {
		k := edgeKey{strings.TrimSpace(e.SourceID), strings.TrimSpace(e.TargetID), e.Relationship}
		if i, ok := pos[k]; ok {
			out[i] = e
			continue
		}
		pos[k] = len(out)
		out = append(out, e)
	}
	return out
}

func graphSummary(g *domain.BeliefGraph) string {
	return fmt.Sprintf("Belief map with %d nodes and %d edges: conflict score %.2f, core beliefs [%s], tension around [%s].",
		len(g.Nodes), len(g.Edges), g.ConflictScore,
		strings.Join(g.CoreBeliefs, ", "), strings.Join(g.TensionNodes, ", "))
}
