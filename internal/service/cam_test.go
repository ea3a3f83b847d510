package service

import (
	"errors"
	"math"
	"testing"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

const eps = 1e-9

func node(id string, typ domain.NodeType, valence float64) domain.BeliefNode {
	return domain.BeliefNode{ID: id, Label: id, Type: typ, EmotionalValence: valence, Strength: 0.5}
}

func edge(src, dst string, rel domain.Relationship, w float64) domain.BeliefEdge {
	return domain.BeliefEdge{SourceID: src, TargetID: dst, Relationship: rel, Weight: w}
}

func TestBuildBeliefGraph_SingleConflictEdge(t *testing.T) {
	nodes := []domain.BeliefNode{
		node("A", domain.NodeGoal, 0.5),
		node("B", domain.NodeLimitingBelief, -0.5),
	}
	edges := []domain.BeliefEdge{edge("A", "B", domain.RelConflicts, 0.9)}

	g, err := BuildBeliefGraph(nodes, edges, DefaultGraphOptions())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if math.Abs(g.ConflictScore-0.45) > eps {
		t.Errorf("expected conflict score 0.45, got %v", g.ConflictScore)
	}
	// Both endpoints carry the same contribution, so none is above the mean.
	if len(g.TensionNodes) != 0 {
		t.Errorf("expected no tension nodes, got %v", g.TensionNodes)
	}
	if diff := cmp.Diff([]string{"A", "B"}, g.CoreBeliefs); diff != "" {
		t.Errorf("core beliefs mismatch (-want +got):\n%s", diff)
	}
	for _, n := range g.Nodes {
		if n.Centrality != 1 {
			t.Errorf("expected centrality 1 for %s, got %v", n.ID, n.Centrality)
		}
	}
}

func TestBuildBeliefGraph_MissingNode(t *testing.T) {
	_, err := BuildBeliefGraph(
		[]domain.BeliefNode{node("A", domain.NodeGoal, 0.5)},
		[]domain.BeliefEdge{edge("A", "B", domain.RelConflicts, 0.5)},
		DefaultGraphOptions(),
	)
	var refErr *domain.ReferentialError
	if !errors.As(err, &refErr) {
		t.Fatalf("expected ReferentialError, got %v", err)
	}
	if refErr.NodeID != "B" || refErr.Edge != 0 {
		t.Errorf("unexpected referential error %+v", refErr)
	}
	if !errors.Is(err, domain.ErrReferential) {
		t.Error("expected error to match ErrReferential")
	}
}

func TestBuildBeliefGraph_Validation(t *testing.T) {
	tests := []struct {
		name  string
		nodes []domain.BeliefNode
		edges []domain.BeliefEdge
	}{
		{"duplicate id", []domain.BeliefNode{node("A", domain.NodeGoal, 0), node("A", domain.NodeEmotion, 0)}, nil},
		{"empty id", []domain.BeliefNode{node(" ", domain.NodeGoal, 0)}, nil},
		{"unknown type", []domain.BeliefNode{node("A", "wish", 0)}, nil},
		{"valence out of range", []domain.BeliefNode{node("A", domain.NodeGoal, 1.5)}, nil},
		{"valence NaN", []domain.BeliefNode{node("A", domain.NodeGoal, math.NaN())}, nil},
		{"strength out of range", []domain.BeliefNode{{ID: "A", Type: domain.NodeGoal, Strength: 2}}, nil},
		{
			"unknown relationship",
			[]domain.BeliefNode{node("A", domain.NodeGoal, 0), node("B", domain.NodeGoal, 0)},
			[]domain.BeliefEdge{edge("A", "B", "likes", 0.5)},
		},
		{
			"weight out of range",
			[]domain.BeliefNode{node("A", domain.NodeGoal, 0), node("B", domain.NodeGoal, 0)},
			[]domain.BeliefEdge{edge("A", "B", domain.RelSupports, 1.2)},
		},
		{
			"self loop",
			[]domain.BeliefNode{node("A", domain.NodeGoal, 0)},
			[]domain.BeliefEdge{edge("A", "A", domain.RelSupports, 0.5)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildBeliefGraph(tt.nodes, tt.edges, DefaultGraphOptions())
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestBuildBeliefGraph_NoConflictEdges(t *testing.T) {
	nodes := []domain.BeliefNode{
		node("goal", domain.NodeGoal, 0.9),
		node("habit", domain.NodeBehavior, -0.8),
		node("win", domain.NodeOutcome, 1),
		node("alone", domain.NodeEmotion, -1),
	}
	edges := []domain.BeliefEdge{
		edge("habit", "goal", domain.RelSupports, 1),
		edge("goal", "win", domain.RelReinforces, 0.4),
	}

	g, err := BuildBeliefGraph(nodes, edges, DefaultGraphOptions())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if g.ConflictScore != 0 {
		t.Errorf("expected conflict score 0, got %v", g.ConflictScore)
	}
	if g.TensionNodes == nil || len(g.TensionNodes) != 0 {
		t.Errorf("expected empty tension list, got %#v", g.TensionNodes)
	}
	// Fewer than five nodes: every connected node, highest centrality first.
	if diff := cmp.Diff([]string{"goal", "habit", "win"}, g.CoreBeliefs); diff != "" {
		t.Errorf("core beliefs mismatch (-want +got):\n%s", diff)
	}

	want := map[string]float64{"goal": 1, "habit": 1 / 1.4, "win": 0.4 / 1.4, "alone": 0}
	for _, n := range g.Nodes {
		if math.Abs(n.Centrality-want[n.ID]) > eps {
			t.Errorf("centrality of %s: expected %v, got %v", n.ID, want[n.ID], n.Centrality)
		}
	}
}

func TestBuildBeliefGraph_TensionAndCore(t *testing.T) {
	nodes := []domain.BeliefNode{
		node("promotion", domain.NodeGoal, 0.8),
		node("not_enough", domain.NodeLimitingBelief, -0.8),
		node("anxiety", domain.NodeEmotion, -0.6),
		node("overwork", domain.NodeBehavior, 0.2),
		node("burnout", domain.NodeOutcome, -0.4),
		node("mentor", domain.NodeBehavior, 0.6),
	}
	edges := []domain.BeliefEdge{
		edge("not_enough", "promotion", domain.RelBlocks, 1),   // 1*1.6/2 = 0.8
		edge("anxiety", "promotion", domain.RelConflicts, 0.5), // 0.5*1.4/2 = 0.35
		edge("overwork", "burnout", domain.RelReinforces, 0.7),
		edge("mentor", "promotion", domain.RelSupports, 0.3),
	}

	g, err := BuildBeliefGraph(nodes, edges, DefaultGraphOptions())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if want := (0.8 + 0.35) / 2; math.Abs(g.ConflictScore-want) > eps {
		t.Errorf("expected conflict score %v, got %v", want, g.ConflictScore)
	}

	// Contributions: promotion 1.15, not_enough 0.8, anxiety 0.35, others 0;
	// mean 2.3/6 ~ 0.383.
	if diff := cmp.Diff([]string{"promotion", "not_enough"}, g.TensionNodes); diff != "" {
		t.Errorf("tension nodes mismatch (-want +got):\n%s", diff)
	}
	// Six nodes at 20%: ceil(1.2) = 2 slots. promotion has the largest incident
	// weight (1.8); not_enough (1.0) is second.
	if diff := cmp.Diff([]string{"promotion", "not_enough"}, g.CoreBeliefs); diff != "" {
		t.Errorf("core beliefs mismatch (-want +got):\n%s", diff)
	}

	all, err := BuildBeliefGraph(nodes, edges, GraphOptions{Normalization: domain.NormalizeAllEdges, CoreBeliefFraction: 0.2})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if want := (0.8 + 0.35) / 4; math.Abs(all.ConflictScore-want) > eps {
		t.Errorf("all_edges: expected conflict score %v, got %v", want, all.ConflictScore)
	}
}

func TestBuildBeliefGraph_CoreTiesIncluded(t *testing.T) {
	nodes := []domain.BeliefNode{
		node("a", domain.NodeGoal, 0), node("b", domain.NodeGoal, 0), node("c", domain.NodeGoal, 0),
		node("d", domain.NodeGoal, 0), node("e", domain.NodeGoal, 0),
	}
	// a-b and c-d carry equal weight: the top 20% (one slot) ties four ways.
	edges := []domain.BeliefEdge{
		edge("a", "b", domain.RelSupports, 0.5),
		edge("c", "d", domain.RelSupports, 0.5),
	}
	g, err := BuildBeliefGraph(nodes, edges, DefaultGraphOptions())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c", "d"}, g.CoreBeliefs); diff != "" {
		t.Errorf("core beliefs mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildBeliefGraph_Deterministic(t *testing.T) {
	nodes := []domain.BeliefNode{
		node("g", domain.NodeGoal, 0.7),
		node("b1", domain.NodeLimitingBelief, -0.9),
		node("b2", domain.NodeLimitingBelief, -0.3),
		node("e", domain.NodeEmotion, -0.5),
	}
	edges := []domain.BeliefEdge{
		edge("b1", "g", domain.RelBlocks, 0.8),
		edge("b2", "g", domain.RelConflicts, 0.4),
		edge("e", "b1", domain.RelReinforces, 0.6),
		edge("e", "g", domain.RelConflicts, 0.33),
	}

	first, err := BuildBeliefGraph(nodes, edges, DefaultGraphOptions())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := BuildBeliefGraph(nodes, edges, DefaultGraphOptions())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("build not deterministic (-first +again):\n%s", diff)
		}
	}
	if first.Nodes[0].Centrality == 0 {
		t.Error("expected computed centrality on the returned nodes")
	}
	if nodes[0].Centrality != 0 {
		t.Error("input nodes must not be modified")
	}
}

func TestBuildBeliefGraph_IgnoresInputCentrality(t *testing.T) {
	n := node("solo", domain.NodeGoal, 0)
	n.Centrality = 0.9
	g, err := BuildBeliefGraph([]domain.BeliefNode{n}, nil, DefaultGraphOptions())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if g.Nodes[0].Centrality != 0 {
		t.Errorf("expected isolated node centrality 0, got %v", g.Nodes[0].Centrality)
	}
	if len(g.CoreBeliefs) != 0 {
		t.Errorf("expected no core beliefs, got %v", g.CoreBeliefs)
	}
}

func TestEmotionConflict(t *testing.T) {
	g, err := BuildBeliefGraph(
		[]domain.BeliefNode{
			node("goal", domain.NodeGoal, 0.6),
			node("fear", domain.NodeEmotion, -0.8),
			node("doubt", domain.NodeLimitingBelief, -0.4),
		},
		[]domain.BeliefEdge{
			edge("fear", "goal", domain.RelBlocks, 1),      // 0.7
			edge("doubt", "goal", domain.RelConflicts, 1),  // 0.5, no emotion endpoint
			edge("fear", "doubt", domain.RelReinforces, 1), // not a conflict edge
		},
		DefaultGraphOptions(),
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	v, ok := EmotionConflict(g)
	if !ok || math.Abs(v-0.7) > eps {
		t.Errorf("expected emotion conflict 0.7, got %v (ok=%v)", v, ok)
	}

	_, ok = EmotionConflict(domain.BeliefGraph{Nodes: []domain.BeliefNode{node("goal", domain.NodeGoal, 0)}})
	if ok {
		t.Error("expected no emotion conflict without emotion edges")
	}
}

func TestCompareGraphs(t *testing.T) {
	prev := domain.BeliefGraph{
		Nodes: []domain.BeliefNode{
			node("goal", domain.NodeGoal, 0.5),
			node("doubt", domain.NodeLimitingBelief, -0.5),
			node("fear", domain.NodeEmotion, -1),
		},
		ConflictScore: 0.6,
		CoreBeliefs:   []string{"doubt", "goal"},
	}
	curr := domain.BeliefGraph{
		Nodes: []domain.BeliefNode{
			node("goal", domain.NodeGoal, 0.9),
			node("doubt", domain.NodeLimitingBelief, -0.5),
			node("plan", domain.NodeBehavior, 0.4),
		},
		ConflictScore: 0.2,
		CoreBeliefs:   []string{"goal", "plan"},
	}

	got := CompareGraphs(prev, curr)
	want := domain.BeliefShift{
		AddedNodes:    []string{"plan"},
		RemovedNodes:  []string{"fear"},
		ConflictDelta: -0.4,
		CoreGained:    []string{"plan"},
		CoreLost:      []string{"doubt"},
		// union {doubt, fear, goal, plan}: 0 + 1 + 0.2 + 1
		Magnitude: 2.2 / 4,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, eps)); diff != "" {
		t.Errorf("shift mismatch (-want +got):\n%s", diff)
	}

	same := CompareGraphs(curr, curr)
	if same.Magnitude != 0 || len(same.AddedNodes) != 0 || len(same.RemovedNodes) != 0 {
		t.Errorf("expected zero shift for identical graphs, got %+v", same)
	}
}
