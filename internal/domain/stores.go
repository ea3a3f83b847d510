package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// KernelStore persists kernel config versions. Create never overwrites: an
// existing version yields store.ErrConflict.
type KernelStore interface {
	Create(ctx context.Context, k *CognitiveKernelConfig) error
	GetByVersion(ctx context.Context, version string) (*CognitiveKernelConfig, error)
	List(ctx context.Context) ([]CognitiveKernelConfig, error)
}

type AgentStore interface {
	Create(ctx context.Context, a *Agent) error
	GetByExternalID(ctx context.Context, tenantID, externalID string) (*Agent, error)
}

// GoalAssessmentStore is append-only; readers resolve "latest wins" by
// measured_at, then insertion order.
type GoalAssessmentStore interface {
	Create(ctx context.Context, g *GoalAssessment) error
	GetLatest(ctx context.Context, s Subject, goalText string) (*GoalAssessment, error)
	// ListLatest returns the newest row per goal_text, most recent first.
	ListLatest(ctx context.Context, s Subject) ([]GoalAssessment, error)
	// ListHistory returns every row for one goal, oldest first.
	ListHistory(ctx context.Context, s Subject, goalText string) ([]GoalAssessment, error)
}

type BeliefGraphStore interface {
	Create(ctx context.Context, g *BeliefGraph) error
	GetLatest(ctx context.Context, s Subject) (*BeliefGraph, error)
	GetByID(ctx context.Context, id uuid.UUID, s Subject) (*BeliefGraph, error)
	// List returns up to limit snapshots, newest first.
	List(ctx context.Context, s Subject, limit int) ([]BeliefGraph, error)
}

type MetricStore interface {
	Create(ctx context.Context, m *CognitiveMetric) error
	GetLatestByType(ctx context.Context, s Subject, t MetricType) (*CognitiveMetric, error)
	// ListByType returns observations measured at or after since, newest first.
	ListByType(ctx context.Context, s Subject, t MetricType, since time.Time, limit int) ([]CognitiveMetric, error)
}

type SummaryStore interface {
	Create(ctx context.Context, sum *Summary) error
	ListBySubject(ctx context.Context, s Subject, limit int) ([]Summary, error)
}

// Stores bundles one storage backend.
type Stores struct {
	Kernels   KernelStore
	Agents    AgentStore
	Goals     GoalAssessmentStore
	Graphs    BeliefGraphStore
	Metrics   MetricStore
	Summaries SummaryStore

	Ping  func(ctx context.Context) error
	Close func()
}
