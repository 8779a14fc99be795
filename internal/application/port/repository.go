package port

import (
	"context"

	"github.com/hokusei/nippo/internal/domain/entity"
)

// SubmissionRepository journals submit attempts. The UUID key makes duplicate
// rows from a retried partial failure detectable after the fact; the journal
// never blocks a submission.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *entity.Submission) error
	MarkStatus(ctx context.Context, id, status, errorMessage string) error
	GetByID(ctx context.Context, id string) (*entity.Submission, error)
	ListRecent(ctx context.Context, department string, limit int) ([]*entity.Submission, error)
}
