package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/influencer-analytics/internal/goals"
)

// GoalRepo implements goals.Store against PostgreSQL.
type GoalRepo struct{ db *sql.DB }

// NewGoalRepo creates a Postgres-backed goal store.
func NewGoalRepo(db *sql.DB) *GoalRepo { return &GoalRepo{db: db} }

const goalColumns = `id, name, metric, target_value, current_value, progress_percentage,
		       expected_progress, status, COALESCE(influencer_id,''), COALESCE(campaign_id,''),
		       start_date, deadline, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(s scanner) (goals.Goal, error) {
	var g goals.Goal
	err := s.Scan(
		&g.ID, &g.Name, &g.Metric, &g.TargetValue, &g.CurrentValue, &g.ProgressPercentage,
		&g.ExpectedProgress, &g.Status, &g.InfluencerID, &g.CampaignID,
		&g.StartDate, &g.Deadline, &g.CreatedAt, &g.UpdatedAt,
	)
	return g, err
}

func (r *GoalRepo) Save(ctx context.Context, g goals.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO analytics_goals
			(id, name, metric, target_value, current_value, progress_percentage, expected_progress,
			 status, influencer_id, campaign_id, start_date, deadline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9,''), NULLIF($10,''), $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, target_value = EXCLUDED.target_value,
			current_value = EXCLUDED.current_value, progress_percentage = EXCLUDED.progress_percentage,
			expected_progress = EXCLUDED.expected_progress, status = EXCLUDED.status,
			deadline = EXCLUDED.deadline, updated_at = EXCLUDED.updated_at
	`, g.ID, g.Name, g.Metric, g.TargetValue, g.CurrentValue, g.ProgressPercentage, g.ExpectedProgress,
		g.Status, g.InfluencerID, g.CampaignID, g.StartDate, g.Deadline, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save goal: %w", err)
	}
	return nil
}

func (r *GoalRepo) Get(ctx context.Context, id string) (goals.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM analytics_goals WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return goals.Goal{}, goals.ErrNotFound
	}
	if err != nil {
		return goals.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *GoalRepo) List(ctx context.Context) ([]goals.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM analytics_goals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []goals.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GoalRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM analytics_goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return goals.ErrNotFound
	}
	return nil
}
