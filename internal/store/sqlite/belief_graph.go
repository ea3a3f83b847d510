package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"github.com/google/uuid"
)

const graphColumns = `id, tenant_id, user_id, agent_id, kernel_version, method, nodes, edges,
	conflict_score, tension_nodes, core_beliefs, session_ref, created_at`

// BeliefGraphStore keeps nodes, edges and the derived id lists as JSON text.
type BeliefGraphStore struct {
	db *sql.DB
}

func (s *BeliefGraphStore) Create(ctx context.Context, g *domain.BeliefGraph) error {
	cols := make([]string, 0, 4)
	for _, v := range []any{nonNilNodes(g.Nodes), nonNilEdges(g.Edges), nonNil(g.TensionNodes), nonNil(g.CoreBeliefs)} {
		raw, err := encodeJSON(v)
		if err != nil {
			return err
		}
		cols = append(cols, raw)
	}

	id := uuid.New()
	nanos, createdAt := stamp(g.CreatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO belief_graphs (`+graphColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), g.TenantID, g.UserID, g.AgentID, g.KernelVersion, g.Method, cols[0], cols[1],
		g.ConflictScore, cols[2], cols[3], g.SessionRef, nanos,
	)
	if err != nil {
		return err
	}
	g.ID, g.CreatedAt = id, createdAt
	return nil
}

func (s *BeliefGraphStore) GetLatest(ctx context.Context, subj domain.Subject) (*domain.BeliefGraph, error) {
	g, err := scanGraph(s.db.QueryRowContext(ctx,
		`SELECT `+graphColumns+`
		 FROM belief_graphs
		 WHERE tenant_id = ? AND user_id = ? AND agent_id = ?
		 ORDER BY created_at DESC, seq DESC
		 LIMIT 1`,
		subj.TenantID, subj.UserID, subj.AgentID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *BeliefGraphStore) GetByID(ctx context.Context, id uuid.UUID, subj domain.Subject) (*domain.BeliefGraph, error) {
	g, err := scanGraph(s.db.QueryRowContext(ctx,
		`SELECT `+graphColumns+`
		 FROM belief_graphs
		 WHERE id = ? AND tenant_id = ? AND user_id = ? AND agent_id = ?`,
		id.String(), subj.TenantID, subj.UserID, subj.AgentID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *BeliefGraphStore) List(ctx context.Context, subj domain.Subject, limit int) ([]domain.BeliefGraph, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+graphColumns+`
		 FROM belief_graphs
		 WHERE tenant_id = ? AND user_id = ? AND agent_id = ?
		 ORDER BY created_at DESC, seq DESC
		 LIMIT ?`,
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
	var (
		g                                 domain.BeliefGraph
		id                                string
		nodes, edges, tension, coreBelief sql.NullString
		nanos                             int64
	)
	err := row.Scan(&id, &g.TenantID, &g.UserID, &g.AgentID, &g.KernelVersion, &g.Method, &nodes, &edges,
		&g.ConflictScore, &tension, &coreBelief, &g.SessionRef, &nanos)
	if err != nil {
		return nil, err
	}
	if g.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw sql.NullString
		dst any
	}{
		{nodes, &g.Nodes},
		{edges, &g.Edges},
		{tension, &g.TensionNodes},
		{coreBelief, &g.CoreBeliefs},
	} {
		if err := decodeJSON(col.raw, col.dst); err != nil {
			return nil, err
		}
	}
	g.CreatedAt = fromNanos(nanos)
	return &g, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func nonNilNodes(nodes []domain.BeliefNode) []domain.BeliefNode {
	if nodes == nil {
		return []domain.BeliefNode{}
	}
	return nodes
}

func nonNilEdges(edges []domain.BeliefEdge) []domain.BeliefEdge {
	if edges == nil {
		return []domain.BeliefEdge{}
	}
	return edges
}
