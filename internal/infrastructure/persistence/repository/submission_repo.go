package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/hokusei/nippo/internal/domain/entity"
)

// SubmissionRepository journals submit attempts in sqlite. The UUID primary
// key doubles as an idempotency marker: duplicated sheet rows caused by a
// retried partial failure can be traced back to their attempts here.
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission repository.
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new journal entry.
func (r *SubmissionRepository) Create(ctx context.Context, sub *entity.Submission) error {
	query := `
		INSERT INTO submissions (
			id, department, work_date, worker, row_count,
			total_hours, auto_hours, status, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		sub.ID,
		sub.Department,
		sub.WorkDate,
		sub.Worker,
		sub.RowCount,
		sub.TotalHours,
		sub.AutoHours,
		sub.Status,
		sub.ErrorMessage,
	)
	if err != nil {
		r.logger.Error("Failed to create submission record", zap.Error(err))
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

// MarkStatus updates the outcome of a submit attempt.
func (r *SubmissionRepository) MarkStatus(ctx context.Context, id, status, errorMessage string) error {
	query := `UPDATE submissions SET status = ?, error_message = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, errorMessage, id)
	if err != nil {
		r.logger.Error("Failed to update submission status",
			zap.String("submission_id", id), zap.Error(err))
		return fmt.Errorf("failed to update submission status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("submission %s not found", id)
	}
	return nil
}

// GetByID retrieves one journal entry.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*entity.Submission, error) {
	query := `
		SELECT id, department, work_date, worker, row_count,
			total_hours, auto_hours, status, error_message, created_at
		FROM submissions
		WHERE id = ?
	`

	var sub entity.Submission
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID,
		&sub.Department,
		&sub.WorkDate,
		&sub.Worker,
		&sub.RowCount,
		&sub.TotalHours,
		&sub.AutoHours,
		&sub.Status,
		&sub.ErrorMessage,
		&sub.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("submission %s not found", id)
	}
	if err != nil {
		r.logger.Error("Failed to get submission", zap.String("submission_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

// ListRecent returns the latest journal entries, optionally filtered by
// department.
func (r *SubmissionRepository) ListRecent(ctx context.Context, department string, limit int) ([]*entity.Submission, error) {
	query := `
		SELECT id, department, work_date, worker, row_count,
			total_hours, auto_hours, status, error_message, created_at
		FROM submissions
		WHERE (? = '' OR department = ?)
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, department, department, limit)
	if err != nil {
		r.logger.Error("Failed to list submissions",
			zap.String("department", department), zap.Error(err))
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*entity.Submission
	for rows.Next() {
		var sub entity.Submission
		err := rows.Scan(
			&sub.ID,
			&sub.Department,
			&sub.WorkDate,
			&sub.Worker,
			&sub.RowCount,
			&sub.TotalHours,
			&sub.AutoHours,
			&sub.Status,
			&sub.ErrorMessage,
			&sub.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, &sub)
	}

	return subs, rows.Err()
}
