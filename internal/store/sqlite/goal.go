package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/DTSP-AI/numen-ai-sub001/internal/domain"
	"github.com/DTSP-AI/numen-ai-sub001/internal/store"
	"github.com/google/uuid"
)

const goalColumns = `id, tenant_id, user_id, agent_id, goal_text, goal_category,
	gas_current_level, gas_target_level, ideal_state_rating, actual_state_rating,
	attempt_count, success_count, confidence_score, motivation_score,
	progress_delta, gap_score, kernel_version, assessment_method, session_ref, measured_at`

type GoalAssessmentStore struct {
	db *sql.DB
}

func (s *GoalAssessmentStore) Create(ctx context.Context, g *domain.GoalAssessment) error {
	id := uuid.New()
	nanos, measuredAt := stamp(g.MeasuredAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goal_assessments (`+goalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), g.TenantID, g.UserID, g.AgentID, g.GoalText, g.GoalCategory,
		g.GASCurrentLevel, g.GASTargetLevel, g.IdealStateRating, g.ActualStateRating,
		g.AttemptCount, g.SuccessCount, g.ConfidenceScore, g.MotivationScore,
		g.ProgressDelta, g.GapScore, g.KernelVersion, g.Method, g.SessionRef, nanos,
	)
	if err != nil {
		return err
	}
	g.ID, g.MeasuredAt = id, measuredAt
	return nil
}

func (s *GoalAssessmentStore) GetLatest(ctx context.Context, subj domain.Subject, goalText string) (*domain.GoalAssessment, error) {
	g, err := scanGoal(s.db.QueryRowContext(ctx,
		`SELECT `+goalColumns+`
		 FROM goal_assessments
		 WHERE tenant_id = ? AND user_id = ? AND agent_id = ? AND goal_text = ?
		 ORDER BY measured_at DESC, seq DESC
		 LIMIT 1`,
		subj.TenantID, subj.UserID, subj.AgentID, goalText,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (s *GoalAssessmentStore) ListLatest(ctx context.Context, subj domain.Subject) ([]domain.GoalAssessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY goal_text ORDER BY measured_at DESC, seq DESC
			) AS rn
			FROM goal_assessments
			WHERE tenant_id = ? AND user_id = ? AND agent_id = ?
		 )
		 WHERE rn = 1
		 ORDER BY measured_at DESC, seq DESC`,
		subj.TenantID, subj.UserID, subj.AgentID,
	)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

func (s *GoalAssessmentStore) ListHistory(ctx context.Context, subj domain.Subject, goalText string) ([]domain.GoalAssessment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+goalColumns+`
		 FROM goal_assessments
		 WHERE tenant_id = ? AND user_id = ? AND agent_id = ? AND goal_text = ?
		 ORDER BY measured_at, seq`,
		subj.TenantID, subj.UserID, subj.AgentID, goalText,
	)
	if err != nil {
		return nil, err
	}
	return collectGoals(rows)
}

func collectGoals(rows *sql.Rows) ([]domain.GoalAssessment, error) {
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
	var (
		g     domain.GoalAssessment
		id    string
		nanos int64
	)
	err := row.Scan(&id, &g.TenantID, &g.UserID, &g.AgentID, &g.GoalText, &g.GoalCategory,
		&g.GASCurrentLevel, &g.GASTargetLevel, &g.IdealStateRating, &g.ActualStateRating,
		&g.AttemptCount, &g.SuccessCount, &g.ConfidenceScore, &g.MotivationScore,
		&g.ProgressDelta, &g.GapScore, &g.KernelVersion, &g.Method, &g.SessionRef, &nanos)
	if err != nil {
		return nil, err
	}
	if g.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	g.MeasuredAt = fromNanos(nanos)
	return &g, nil
}
