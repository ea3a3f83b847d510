package service

import (
	"math"
	"slices"
	"strings"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
)

// GraphOptions are the tunables of the CAM analysis.
type GraphOptions struct {
	Normalization      domain.ConflictNormalization
	CoreBeliefFraction float64
}

func DefaultGraphOptions() GraphOptions {
	return GraphOptions{
		Normalization:      domain.NormalizeConflictEdges,
		CoreBeliefFraction: domain.DefaultCoreBeliefFraction,
	}
}

func GraphOptionsFor(k domain.CognitiveKernelConfig) GraphOptions {
	opts := GraphOptions{
		Normalization:      k.BeliefMapping.ConflictNormalization,
		CoreBeliefFraction: k.BeliefMapping.CoreBeliefFraction,
	}
	if opts.Normalization == "" {
		opts.Normalization = domain.NormalizeConflictEdges
	}
	if opts.CoreBeliefFraction <= 0 || opts.CoreBeliefFraction > 1 {
		opts.CoreBeliefFraction = domain.DefaultCoreBeliefFraction
	}
	return opts
}

// Graphs with fewer nodes than this skip the percentile cut for core beliefs.
const minNodesForPercentile = 5

// BuildBeliefGraph validates nodes and edges and computes centrality, the
// conflict score, tension nodes and core beliefs. It is a pure function of
// its arguments; identity, subject and timestamps are left for the caller.
func BuildBeliefGraph(nodes []domain.BeliefNode, edges []domain.BeliefEdge, opts GraphOptions) (domain.BeliefGraph, error) {
	index := make(map[string]int, len(nodes))
	out := make([]domain.BeliefNode, len(nodes))
	for i, n := range nodes {
		n.ID = strings.TrimSpace(n.ID)
		if err := validateNode(i, n); err != nil {
			return domain.BeliefGraph{}, err
		}
		if _, dup := index[n.ID]; dup {
			return domain.BeliefGraph{}, domain.Invalid("nodes", "duplicate node id %q", n.ID)
		}
		index[n.ID] = i
		n.Centrality = 0
		out[i] = n
	}

	outEdges := make([]domain.BeliefEdge, len(edges))
	for i, e := range edges {
		e.SourceID = strings.TrimSpace(e.SourceID)
		e.TargetID = strings.TrimSpace(e.TargetID)
		if _, ok := index[e.SourceID]; !ok {
			return domain.BeliefGraph{}, &domain.ReferentialError{Edge: i, NodeID: e.SourceID}
		}
		if _, ok := index[e.TargetID]; !ok {
			return domain.BeliefGraph{}, &domain.ReferentialError{Edge: i, NodeID: e.TargetID}
		}
		if err := validateEdge(i, e); err != nil {
			return domain.BeliefGraph{}, err
		}
		outEdges[i] = e
	}

	// Centrality: incident weight relative to the most connected node.
	incident := make([]float64, len(out))
	for _, e := range outEdges {
		incident[index[e.SourceID]] += e.Weight
		incident[index[e.TargetID]] += e.Weight
	}
	maxIncident := 0.0
	for _, w := range incident {
		maxIncident = max(maxIncident, w)
	}
	if maxIncident > 0 {
		for i := range out {
			out[i].Centrality = incident[i] / maxIncident
		}
	}

	// Conflict: per-edge weight times half the valence gap, over conflict edges.
	contribution := make([]float64, len(out))
	var sum float64
	var conflictEdges int
	for _, e := range outEdges {
		if !e.Relationship.IsConflict() {
			continue
		}
		src, dst := index[e.SourceID], index[e.TargetID]
		term := conflictTerm(e, out[src], out[dst])
		sum += term
		conflictEdges++
		contribution[src] += term
		contribution[dst] += term
	}

	denominator := conflictEdges
	if opts.Normalization == domain.NormalizeAllEdges {
		denominator = len(outEdges)
	}
	var score float64
	if conflictEdges > 0 && denominator > 0 {
		score = math.Min(sum/float64(denominator), 1)
	}

	return domain.BeliefGraph{
		Nodes:         out,
		Edges:         outEdges,
		ConflictScore: score,
		TensionNodes:  tensionNodes(out, contribution),
		CoreBeliefs:   coreBeliefs(out, opts.CoreBeliefFraction),
	}, nil
}

func conflictTerm(e domain.BeliefEdge, src, dst domain.BeliefNode) float64 {
	return e.Weight * math.Abs(src.EmotionalValence-dst.EmotionalValence) / 2
}

// tensionNodes returns the nodes whose conflict contribution is strictly
// above the mean contribution, highest first, ties by id.
func tensionNodes(nodes []domain.BeliefNode, contribution []float64) []string {
	tension := []string{}
	if len(nodes) == 0 {
		return tension
	}
	var total float64
	for _, c := range contribution {
		total += c
	}
	mean := total / float64(len(nodes))

	idx := make([]int, 0, len(nodes))
	for i, c := range contribution {
		if c > mean {
			idx = append(idx, i)
		}
	}
	slices.SortFunc(idx, func(a, b int) int {
		if contribution[a] != contribution[b] {
			if contribution[a] > contribution[b] {
				return -1
			}
			return 1
		}
		return strings.Compare(nodes[a].ID, nodes[b].ID)
	})
	for _, i := range idx {
		tension = append(tension, nodes[i].ID)
	}
	return tension
}

// coreBeliefs returns the top fraction of nodes by centrality, ties at the
// cut included. Small graphs return every connected node.
func coreBeliefs(nodes []domain.BeliefNode, fraction float64) []string {
	sorted := slices.Clone(nodes)
	slices.SortFunc(sorted, func(a, b domain.BeliefNode) int {
		if a.Centrality != b.Centrality {
			if a.Centrality > b.Centrality {
				return -1
			}
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})

	cutoff := 0.0
	if len(sorted) >= minNodesForPercentile {
		// The epsilon keeps float products like 0.2*15 from rounding up a rank.
		k := int(math.Ceil(fraction*float64(len(sorted)) - 1e-9))
		k = min(max(k, 1), len(sorted))
		cutoff = sorted[k-1].Centrality
	}

	core := []string{}
	for _, n := range sorted {
		if n.Centrality <= 0 || n.Centrality < cutoff {
			break
		}
		core = append(core, n.ID)
	}
	return core
}

// EmotionConflict is the mean conflict term over conflict edges that touch an
// emotion node. ok is false when there are no such edges.
func EmotionConflict(g domain.BeliefGraph) (value float64, ok bool) {
	nodes := make(map[string]domain.BeliefNode, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.ID] = n
	}

	var sum float64
	var count int
	for _, e := range g.Edges {
		if !e.Relationship.IsConflict() {
			continue
		}
		src, dst := nodes[e.SourceID], nodes[e.TargetID]
		if src.Type != domain.NodeEmotion && dst.Type != domain.NodeEmotion {
			continue
		}
		sum += conflictTerm(e, src, dst)
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// CompareGraphs describes how curr differs from prev. Magnitude is the mean,
// over every node id in either graph, of half the valence change; a node
// present in only one graph counts as a full change of 1.
func CompareGraphs(prev, curr domain.BeliefGraph) domain.BeliefShift {
	prevNodes := make(map[string]domain.BeliefNode, len(prev.Nodes))
	for _, n := range prev.Nodes {
		prevNodes[n.ID] = n
	}
	currNodes := make(map[string]domain.BeliefNode, len(curr.Nodes))
	for _, n := range curr.Nodes {
		currNodes[n.ID] = n
	}

	shift := domain.BeliefShift{
		PreviousGraphID: prev.ID,
		CurrentGraphID:  curr.ID,
		AddedNodes:      []string{},
		RemovedNodes:    []string{},
		ConflictDelta:   curr.ConflictScore - prev.ConflictScore,
		CoreGained:      difference(curr.CoreBeliefs, prev.CoreBeliefs),
		CoreLost:        difference(prev.CoreBeliefs, curr.CoreBeliefs),
	}

	ids := make([]string, 0, len(prevNodes)+len(currNodes))
	for id := range prevNodes {
		ids = append(ids, id)
	}
	for id := range currNodes {
		if _, ok := prevNodes[id]; !ok {
			ids = append(ids, id)
		}
	}
	// Sorted so the float sum below is reproducible.
	slices.Sort(ids)

	var total float64
	for _, id := range ids {
		p, inPrev := prevNodes[id]
		c, inCurr := currNodes[id]
		switch {
		case !inPrev:
			shift.AddedNodes = append(shift.AddedNodes, id)
			total++
		case !inCurr:
			shift.RemovedNodes = append(shift.RemovedNodes, id)
			total++
		default:
			total += math.Abs(c.EmotionalValence-p.EmotionalValence) / 2
		}
	}
	if len(ids) > 0 {
		shift.Magnitude = total / float64(len(ids))
	}
	return shift
}

// difference returns the ids in a that are not in b, sorted.
func difference(a, b []string) []string {
	out := []string{}
	for _, id := range a {
		if !slices.Contains(b, id) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

func validateNode(i int, n domain.BeliefNode) error {
	switch {
	case n.ID == "":
		return domain.Invalid("nodes", "node %d has an empty id", i)
	case !domain.ValidNodeType(string(n.Type)):
		return domain.Invalid("nodes", "node %q has unknown type %q", n.ID, n.Type)
	case !(n.EmotionalValence >= -1 && n.EmotionalValence <= 1):
		return domain.Invalid("nodes", "node %q emotional_valence must be in [-1,1], got %v", n.ID, n.EmotionalValence)
	case !(n.Strength >= 0 && n.Strength <= 1):
		return domain.Invalid("nodes", "node %q strength must be in [0,1], got %v", n.ID, n.Strength)
	}
	return nil
}

func validateEdge(i int, e domain.BeliefEdge) error {
	switch {
	case !domain.ValidRelationship(string(e.Relationship)):
		return domain.Invalid("edges", "edge %d has unknown relationship %q", i, e.Relationship)
	case !(e.Weight >= 0 && e.Weight <= 1):
		return domain.Invalid("edges", "edge %d weight must be in [0,1], got %v", i, e.Weight)
	case e.SourceID == e.TargetID:
		return domain.Invalid("edges", "edge %d is a self-loop on %q", i, e.SourceID)
	}
	return nil
}
