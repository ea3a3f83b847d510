package store

import (
	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStores wires every PostgreSQL store onto one pool.
func NewStores(db *pgxpool.Pool) domain.Stores {
	return domain.Stores{
		Kernels:   NewKernelStore(db),
		Agents:    NewAgentStore(db),
		Goals:     NewGoalAssessmentStore(db),
		Graphs:    NewBeliefGraphStore(db),
		Metrics:   NewMetricStore(db),
		Summaries: NewSummaryStore(db),
		Ping:      db.Ping,
		Close:     db.Close,
	}
}

var (
	_ domain.KernelStore         = (*KernelStore)(nil)
	_ domain.AgentStore          = (*AgentStore)(nil)
	_ domain.GoalAssessmentStore = (*GoalAssessmentStore)(nil)
	_ domain.BeliefGraphStore    = (*BeliefGraphStore)(nil)
	_ domain.MetricStore         = (*MetricStore)(nil)
	_ domain.SummaryStore        = (*SummaryStore)(nil)
)
