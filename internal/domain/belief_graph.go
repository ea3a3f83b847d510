package domain

import (
	"time"

	"github.com/google/uuid"
)

type NodeType string

const (
	NodeGoal           NodeType = "goal"
	NodeLimitingBelief NodeType = "limiting_belief"
	NodeEmotion        NodeType = "emotion"
	NodeBehavior       NodeType = "behavior"
	NodeOutcome        NodeType = "outcome"
)

func ValidNodeType(t string) bool {
	switch NodeType(t) {
	case NodeGoal, NodeLimitingBelief, NodeEmotion, NodeBehavior, NodeOutcome:
		return true
	}
	return false
}

type Relationship string

const (
	RelSupports   Relationship = "supports"
	RelConflicts  Relationship = "conflicts"
	RelBlocks     Relationship = "blocks"
	RelReinforces Relationship = "reinforces"
)

func ValidRelationship(r string) bool {
	switch Relationship(r) {
	case RelSupports, RelConflicts, RelBlocks, RelReinforces:
		return true
	}
	return false
}

// IsConflict reports whether the edge contributes to the conflict score.
func (r Relationship) IsConflict() bool {
	return r == RelConflicts || r == RelBlocks
}

type BeliefNode struct {
	ID               string   `json:"id" yaml:"id"`
	Label            string   `json:"label" yaml:"label"`
	Type             NodeType `json:"type" yaml:"type"`
	EmotionalValence float64  `json:"emotional_valence" yaml:"emotional_valence"`
	Strength         float64  `json:"strength" yaml:"strength"`
	// Centrality is computed by the builder; any input value is ignored.
	Centrality float64 `json:"centrality" yaml:"-"`
}

// BeliefEdge links two nodes of the same graph by id.
type BeliefEdge struct {
	SourceID     string       `json:"source_id" yaml:"source_id"`
	TargetID     string       `json:"target_id" yaml:"target_id"`
	Relationship Relationship `json:"relationship" yaml:"relationship"`
	Weight       float64      `json:"weight" yaml:"weight"`
}

// BeliefGraph is an immutable Cognitive-Affective Map snapshot. A new
// assessment produces a new snapshot; history is never rewritten.
type BeliefGraph struct {
	ID            uuid.UUID           `json:"id"`
	TenantID      string              `json:"tenant_id"`
	UserID        string              `json:"user_id"`
	AgentID       string              `json:"agent_id"`
	KernelVersion string              `json:"kernel_version"`
	Method        BeliefMappingMethod `json:"method"`
	Nodes         []BeliefNode        `json:"nodes"`
	Edges         []BeliefEdge        `json:"edges"`
	ConflictScore float64             `json:"conflict_score"`
	TensionNodes  []string            `json:"tension_nodes"`
	CoreBeliefs   []string            `json:"core_beliefs"`
	SessionRef    string              `json:"session_ref,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func (g *BeliefGraph) SetSubject(s Subject) {
	g.TenantID, g.UserID, g.AgentID = s.TenantID, s.UserID, s.AgentID
}

func (g BeliefGraph) Subject() Subject {
	return Subject{TenantID: g.TenantID, UserID: g.UserID, AgentID: g.AgentID}
}

// Node returns the node with the given id.
func (g BeliefGraph) Node(id string) (BeliefNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return BeliefNode{}, false
}

// BeliefShift describes how a user's belief map moved between two snapshots.
type BeliefShift struct {
	PreviousGraphID uuid.UUID `json:"previous_graph_id"`
	CurrentGraphID  uuid.UUID `json:"current_graph_id"`
	AddedNodes      []string  `json:"added_nodes"`
	RemovedNodes    []string  `json:"removed_nodes"`
	ConflictDelta   float64   `json:"conflict_delta"`
	CoreGained      []string  `json:"core_gained"`
	CoreLost        []string  `json:"core_lost"`
	Magnitude       float64   `json:"magnitude"`
}
