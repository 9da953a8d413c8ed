package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fintrack/backend/internal/models"
)

// GoalService is the goal ledger: it owns savings goals and the running
// saved amount. Contributions rewrite saved and isAchieved together in one
// transaction; ToggleAchieved is a deliberate manual override that holds
// until the next contribution re-derives the flag.
type GoalService struct {
	db *sql.DB
}

func NewGoalService(db *sql.DB) *GoalService {
	return &GoalService{db: db}
}

type CreateGoalInput struct {
	Title       string
	Target      decimal.Decimal
	Saved       decimal.Decimal
	Deadline    *time.Time
	Description string
}

type UpdateGoalInput struct {
	Title       *string
	Target      *decimal.Decimal
	Saved       *decimal.Decimal
	Deadline    *time.Time
	Description *string
	IsAchieved  *bool
}

func (s *GoalService) Create(ctx context.Context, userID string, in CreateGoalInput) (*models.Goal, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalidInput("title is required")
	}
	if in.Target.Sign() <= 0 {
		return nil, invalidInput("target must be positive")
	}
	if in.Saved.Sign() < 0 {
		return nil, invalidInput("saved must not be negative")
	}

	goal := &models.Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       in.Title,
		Target:      in.Target,
		Saved:       in.Saved,
		Deadline:    in.Deadline,
		Description: in.Description,
		IsAchieved:  in.Saved.GreaterThanOrEqual(in.Target),
		CreatedAt:   time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (id, user_id, title, target, saved, deadline, description, is_achieved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		goal.ID, goal.UserID, goal.Title, goal.Target, goal.Saved,
		goal.Deadline, goal.Description, goal.IsAchieved, goal.CreatedAt)
	if err != nil {
		log.Printf("[GOAL] Failed to create goal for user %s: %v", userID, err)
		return nil, storeError(err)
	}

	return goal, nil
}

func (s *GoalService) List(ctx context.Context, userID string) ([]models.Goal, error) {
	return s.list(ctx, `
		SELECT id, user_id, title, target, saved, deadline, COALESCE(description, ''), is_achieved, created_at
		FROM goals
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
}

// ListActive returns unachieved goals ordered by target descending, for the
// dashboard's active-goal aggregate.
func (s *GoalService) ListActive(ctx context.Context, userID string) ([]models.Goal, error) {
	return s.list(ctx, `
		SELECT id, user_id, title, target, saved, deadline, COALESCE(description, ''), is_achieved, created_at
		FROM goals
		WHERE user_id = $1 AND is_achieved = false
		ORDER BY target DESC`, userID)
}

// ApplyContribution adds to the goal's saved amount and re-derives
// isAchieved from saved >= target, atomically. The goal row is locked so
// concurrent contributions serialize without lost updates.
func (s *GoalService) ApplyContribution(ctx context.Context, userID, goalID string, amount decimal.Decimal) (*models.Goal, error) {
	if amount.Sign() <= 0 {
		return nil, invalidInput("amount must be positive")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Printf("[GOAL] Failed to begin contribution transaction: %v", err)
		return nil, storeError(err)
	}
	defer tx.Rollback()

	goal, err := s.lockGoal(tx, userID, goalID)
	if err != nil {
		return nil, err
	}

	goal.Saved = goal.Saved.Add(amount)
	goal.IsAchieved = goal.Saved.GreaterThanOrEqual(goal.Target)

	_, err = tx.Exec(`
		UPDATE goals SET saved = $1, is_achieved = $2 WHERE id = $3`,
		goal.Saved, goal.IsAchieved, goal.ID)
	if err != nil {
		log.Printf("[GOAL] Failed to update saved for goal %s: %v", goalID, err)
		return nil, storeError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[GOAL] Failed to commit contribution for goal %s: %v", goalID, err)
		return nil, storeError(err)
	}

	log.Printf("[GOAL] Contribution applied to goal %s, saved %s", goalID, goal.Saved)
	return goal, nil
}

// ToggleAchieved flips the achieved flag regardless of the saved/target
// comparison. Supports reactivating a goal whose saved already covers its
// target.
func (s *GoalService) ToggleAchieved(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeError(err)
	}
	defer tx.Rollback()

	goal, err := s.lockGoal(tx, userID, goalID)
	if err != nil {
		return nil, err
	}

	goal.IsAchieved = !goal.IsAchieved

	_, err = tx.Exec(`UPDATE goals SET is_achieved = $1 WHERE id = $2`, goal.IsAchieved, goal.ID)
	if err != nil {
		log.Printf("[GOAL] Failed to toggle achieved for goal %s: %v", goalID, err)
		return nil, storeError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storeError(err)
	}

	return goal, nil
}

func (s *GoalService) Update(ctx context.Context, userID, goalID string, in UpdateGoalInput) (*models.Goal, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, invalidInput("title must not be empty")
	}
	if in.Target != nil && in.Target.Sign() <= 0 {
		return nil, invalidInput("target must be positive")
	}
	if in.Saved != nil && in.Saved.Sign() < 0 {
		return nil, invalidInput("saved must not be negative")
	}

	var sets []string
	var args []interface{}
	argIndex := 1

	if in.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argIndex))
		args = append(args, *in.Title)
		argIndex++
	}
	if in.Target != nil {
		sets = append(sets, fmt.Sprintf("target = $%d", argIndex))
		args = append(args, *in.Target)
		argIndex++
	}
	if in.Saved != nil {
		sets = append(sets, fmt.Sprintf("saved = $%d", argIndex))
		args = append(args, *in.Saved)
		argIndex++
	}
	if in.Deadline != nil {
		sets = append(sets, fmt.Sprintf("deadline = $%d", argIndex))
		args = append(args, *in.Deadline)
		argIndex++
	}
	if in.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, *in.Description)
		argIndex++
	}
	if in.IsAchieved != nil {
		sets = append(sets, fmt.Sprintf("is_achieved = $%d", argIndex))
		args = append(args, *in.IsAchieved)
		argIndex++
	}

	if len(sets) == 0 {
		return nil, invalidInput("no fields to update")
	}

	query := fmt.Sprintf(`
		UPDATE goals SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING id, user_id, title, target, saved, deadline, COALESCE(description, ''), is_achieved, created_at`,
		strings.Join(sets, ", "), argIndex, argIndex+1)
	args = append(args, goalID, userID)

	var g models.Goal
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&g.ID, &g.UserID, &g.Title, &g.Target, &g.Saved,
			&g.Deadline, &g.Description, &g.IsAchieved, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Printf("[GOAL] Failed to update goal %s: %v", goalID, err)
		return nil, storeError(err)
	}

	return &g, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = $1 AND user_id = $2`, goalID, userID)
	if err != nil {
		log.Printf("[GOAL] Failed to delete goal %s: %v", goalID, err)
		return storeError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return storeError(err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *GoalService) list(ctx context.Context, query, userID string) ([]models.Goal, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Printf("[GOAL] Failed to list goals for user %s: %v", userID, err)
		return nil, storeError(err)
	}
	defer rows.Close()

	goals := []models.Goal{}
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &g.Target, &g.Saved,
			&g.Deadline, &g.Description, &g.IsAchieved, &g.CreatedAt); err != nil {
			return nil, storeError(err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError(err)
	}

	return goals, nil
}

func (s *GoalService) lockGoal(tx *sql.Tx, userID, goalID string) (*models.Goal, error) {
	var g models.Goal
	err := tx.QueryRow(`
		SELECT id, user_id, title, target, saved, deadline, COALESCE(description, ''), is_achieved, created_at
		FROM goals
		WHERE id = $1
		FOR UPDATE`, goalID).
		Scan(&g.ID, &g.UserID, &g.Title, &g.Target, &g.Saved,
			&g.Deadline, &g.Description, &g.IsAchieved, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeError(err)
	}
	if g.UserID != userID {
		return nil, ErrNotFound
	}

	return &g, nil
}
