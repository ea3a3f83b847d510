package store

import (
	"context"
	"errors"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const graphColumns = `id, tenant_id, user_id, agent_id, kernel_version, method, nodes, edges,
	conflict_score, tension_nodes, core_beliefs, session_ref, created_at`

// BeliefGraphStore persists CAM snapshots. Nodes and edges are stored as
// JSONB arrays of flat records keyed by node id.
type BeliefGraphStore struct {
	db *pgxpool.Pool
}

func NewBeliefGraphStore(db *pgxpool.Pool) *BeliefGraphStore {
	return &BeliefGraphStore{db: db}
}

func (s *BeliefGraphStore) Create(ctx context.Context, g *domain.BeliefGraph) error {
	nodes, err := marshalJSON(g.Nodes)
	if err != nil {
		return err
	}
	edges, err := marshalJSON(g.Edges)
	if err != nil {
		return err
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO belief_graphs (tenant_id, user_id, agent_id, kernel_version, method, nodes, edges,
			conflict_score, tension_nodes, core_beliefs, session_ref, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, NOW()))
		 RETURNING id, created_at`,
		g.TenantID, g.UserID, g.AgentID, g.KernelVersion, g.Method, nodes, edges,
		g.ConflictScore, nonNil(g.TensionNodes), nonNil(g.CoreBeliefs), g.SessionRef, optionalTime(g.CreatedAt),
	).Scan(&g.ID, &g.CreatedAt)
}

func (s *BeliefGraphStore) GetLatest(ctx context.Context, subj domain.Subject) (*domain.BeliefGraph, error) {
	g, err := scanGraph(s.db.QueryRow(ctx,
		`SELECT `+graphColumns+`
		 FROM belief_graphs
		 WHERE tenant_id = $1 AND user_id = $2 AND agent_id = $3
		 ORDER BY created_at DESC, seq DESC
		 LIMIT 1`,
		subj.TenantID, subj.UserID, subj.AgentID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *BeliefGraphStore) GetByID(ctx context.Context, id uuid.UUID, subj domain.Subject) (*domain.BeliefGraph, error) {
	g, err := scanGraph(s.db.QueryRow(ctx,
		`SELECT `+graphColumns+`
		 FROM belief_graphs
		 WHERE id = $1 AND tenant_id = $2 AND user_id = $3 AND agent_id = $4`,
		id, subj.TenantID, subj.UserID, subj.AgentID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *BeliefGraphStore) List(ctx context.Context, subj domain.Subject, limit int) ([]domain.BeliefGraph, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+graphColumns+`
		 FROM belief_graphs
		 WHERE tenant_id = $1 AND user_id = $2 AND agent_id = $3
		 ORDER BY created_at DESC, seq DESC
		 LIMIT $4`,
		subj.TenantID, subj.UserID, subj.AgentID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var graphs []domain.BeliefGraph
	for rows.Next() {
		g, err := scanGraph(rows)
		if err != nil {
			return nil, err
		}
		graphs = append(graphs, *g)
	}
	return graphs, rows.Err()
}

func scanGraph(row scanner) (*domain.BeliefGraph, error) {
	var nodes, edges []byte
	g := &domain.BeliefGraph{}
	err := row.Scan(&g.ID, &g.TenantID, &g.UserID, &g.AgentID, &g.KernelVersion, &g.Method, &nodes, &edges,
		&g.ConflictScore, &g.TensionNodes, &g.CoreBeliefs, &g.SessionRef, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(nodes, &g.Nodes); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(edges, &g.Edges); err != nil {
		return nil, err
	}
	return g, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
