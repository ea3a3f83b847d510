package store

import (
	"context"
	"errors"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const goalColumns = `id, tenant_id, user_id, agent_id, goal_text, goal_category,
	gas_current_level, gas_target_level, ideal_state_rating, actual_state_rating,
	attempt_count, success_count, confidence_score, motivation_score,
	progress_delta, gap_score, kernel_version, assessment_method, session_ref, measured_at`

// GoalAssessmentStore appends goal check-ins. Rows are never updated.
type GoalAssessmentStore struct {
	db *pgxpool.Pool
}

func NewGoalAssessmentStore(db *pgxpool.Pool) *GoalAssessmentStore {
	return &GoalAssessmentStore{db: db}
}

func (s *GoalAssessmentStore) Create(ctx context.Context, g *domain.GoalAssessment) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO goal_assessments (tenant_id, user_id, agent_id, goal_text, goal_category,
			gas_current_level, gas_target_level, ideal_state_rating, actual_state_rating,
			attempt_count, success_count, confidence_score, motivation_score,
			progress_delta, gap_score, kernel_version, assessment_method, session_ref, measured_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, COALESCE($19, NOW()))
		 RETURNING id, measured_at`,
		g.TenantID, g.UserID, g.AgentID, g.GoalText, g.GoalCategory,
		g.GASCurrentLevel, g.GASTargetLevel, g.IdealStateRating, g.ActualStateRating,
		g.AttemptCount, g.SuccessCount, g.ConfidenceScore, g.MotivationScore,
		g.ProgressDelta, g.GapScore, g.KernelVersion, g.Method, g.SessionRef, optionalTime(g.MeasuredAt),
	).Scan(&g.ID, &g.MeasuredAt)
}

func (s *GoalAssessmentStore) GetLatest(ctx context.Context, subj domain.Subject, goalText string) (*domain.GoalAssessment, error) {
	g, err := scanGoal(s.db.QueryRow(ctx,
		`SELECT `+goalColumns+`
		 FROM goal_assessments
		 WHERE tenant_id = $1 AND user_id = $2 AND agent_id = $3 AND goal_text = $4
		 ORDER BY measured_at DESC, seq DESC
		 LIMIT 1`,
		subj.TenantID, subj.UserID, subj.AgentID, goalText,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *GoalAssessmentStore) ListLatest(ctx context.Context, subj domain.Subject) ([]domain.GoalAssessment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+goalColumns+` FROM (
			SELECT DISTINCT ON (goal_text) *
			FROM goal_assessments
			WHERE tenant_id = $1 AND user_id = $2 AND agent_id = $3
			ORDER BY goal_text, measured_at DESC, seq DESC
		 ) latest
		 ORDER BY measured_at DESC, seq DESC`,
		subj.TenantID, subj.UserID, subj.AgentID,
	)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

func (s *GoalAssessmentStore) ListHistory(ctx context.Context, subj domain.Subject, goalText string) ([]domain.GoalAssessment, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+goalColumns+`
		 FROM goal_assessments
		 WHERE tenant_id = $1 AND user_id = $2 AND agent_id = $3 AND goal_text = $4
		 ORDER BY measured_at, seq`,
		subj.TenantID, subj.UserID, subj.AgentID, goalText,
	)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

func collectGoals(rows pgx.Rows) ([]domain.GoalAssessment, error) {
	defer rows.Close()

	var goals []domain.GoalAssessment
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func scanGoal(row scanner) (*domain.GoalAssessment, error) {
	g := &domain.GoalAssessment{}
	err := row.Scan(&g.ID, &g.TenantID, &g.UserID, &g.AgentID, &g.GoalText, &g.GoalCategory,
		&g.GASCurrentLevel, &g.GASTargetLevel, &g.IdealStateRating, &g.ActualStateRating,
		&g.AttemptCount, &g.SuccessCount, &g.ConfidenceScore, &g.MotivationScore,
		&g.ProgressDelta, &g.GapScore, &g.KernelVersion, &g.Method, &g.SessionRef, &g.MeasuredAt)
	if err != nil {
		return nil, err
	}
	return g, nil
}
