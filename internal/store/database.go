package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"code-review-backend/internal/db"
	"code-review-backend/internal/review"
)

// DatabaseStore reads and updates submissions and tasks in PostgreSQL.
type DatabaseStore struct {
	db  *db.DB
	log *zap.Logger
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.DB, log *zap.Logger) *DatabaseStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &DatabaseStore{db: database, log: log}
}

// GetSubmission loads the review-related columns of a submission.
func (ds *DatabaseStore) GetSubmission(ctx context.Context, id string) (*Submission, error) {
	if id == "" {
		return nil, fmt.Errorf("submission id is required")
	}

	query := `
		SELECT id, task_id, COALESCE(submission_content, ''), COALESCE(ai_review_status, ''),
			ai_score, ai_feedback, reviewed_at
		FROM task_submissions
		WHERE id = $1
	`

	var (
		sub        Submission
		status     string
		score      sql.NullInt64
		feedback   []byte
		reviewedAt sql.NullTime
	)
	err := ds.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID,
		&sub.TaskID,
		&sub.SubmissionContent,
		&status,
		&score,
		&feedback,
		&reviewedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}

	sub.ReviewStatus = ReviewStatus(status)
	if sub.ReviewStatus == "" {
		sub.ReviewStatus = StatusPending
	}
	if score.Valid {
		n := int(score.Int64)
		sub.Score = &n
	}
	sub.Feedback = ds.decodeFeedback(id, feedback)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		sub.ReviewedAt = &t
	}
	return &sub, nil
}

// decodeFeedback returns nil for empty or unreadable ai_feedback. Rows written
// by earlier reviewers may hold any shape; they must not block a re-review.
func (ds *DatabaseStore) decodeFeedback(submissionID string, feedback []byte) *review.Verdict {
	if len(feedback) == 0 {
		return nil
	}
	var v review.Verdict
	if err := json.Unmarshal(feedback, &v); err != nil {
		ds.log.Warn("ignoring unreadable ai_feedback",
			zap.String("submission_id", submissionID), zap.Error(err))
		return nil
	}
	return &v
}

// GetTask loads the task metadata shown to the reviewer.
func (ds *DatabaseStore) GetTask(ctx context.Context, id string) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("task id is required")
	}

	query := `
		SELECT id, COALESCE(title, ''), COALESCE(description, ''), COALESCE(tech_stack, '{}'), COALESCE(difficulty, '')
		FROM tasks
		WHERE id = $1
	`

	var t Task
	err := ds.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		pq.Array(&t.TechStack),
		&t.Difficulty,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// SetReviewStatus overwrites ai_review_status.
func (ds *DatabaseStore) SetReviewStatus(ctx context.Context, submissionID string, status ReviewStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid review status %q", status)
	}
	res, err := ds.db.ExecContext(ctx,
		`UPDATE task_submissions SET ai_review_status = $2 WHERE id = $1`,
		submissionID, string(status),
	)
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}
	return requireRow(res, submissionID)
}

// CompleteReview writes the verdict and marks the submission completed in a
// single statement.
func (ds *DatabaseStore) CompleteReview(ctx context.Context, submissionID string, verdict review.Verdict, reviewedAt time.Time) error {
	feedback, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}

	query := `
		UPDATE task_submissions
		SET ai_review_status = $2,
			ai_score = $3,
			ai_feedback = $4,
			reviewed_at = $5
		WHERE id = $1
	`
	res, err := ds.db.ExecContext(ctx, query,
		submissionID, string(StatusCompleted), verdict.Score, string(feedback), reviewedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save review: %w", err)
	}
	return requireRow(res, submissionID)
}

func requireRow(res sql.Result, submissionID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
	}
	return nil
}
