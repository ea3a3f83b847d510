package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SummaryKind string

const (
	SummaryGoal    SummaryKind = "goal"
	SummaryGraph   SummaryKind = "graph"
	SummaryTrigger SummaryKind = "trigger"
)

// Summary is a human-readable note forwarded to long-term memory.
type Summary struct {
	ID         uuid.UUID   `json:"id"`
	TenantID   string      `json:"tenant_id"`
	UserID     string      `json:"user_id"`
	AgentID    string      `json:"agent_id"`
	SessionRef string      `json:"session_ref,omitempty"`
	Kind       SummaryKind `json:"kind"`
	Text       string      `json:"summary_text"`
	Embedding  []float32   `json:"-"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SummarySink is the best-effort side channel to long-term memory. Callers
// log and drop any error it returns.
type SummarySink interface {
	Publish(ctx context.Context, s Subject, sessionRef string, kind SummaryKind, text string) error
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
