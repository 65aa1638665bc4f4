package store

import (
	"context"
	"errors"
	"time"

	"code-review-backend/internal/review"
)

var ErrNotFound = errors.New("not found")

// ReviewStatus is the ai_review_status of a submission.
type ReviewStatus string

const (
	StatusPending   ReviewStatus = "pending"
	StatusReviewing ReviewStatus = "reviewing"
	StatusCompleted ReviewStatus = "completed"
	StatusFailed    ReviewStatus = "failed"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the review state machine has an edge from s
// to next. Every state may (re-)enter reviewing: pending on first run,
// completed and failed on remark, and reviewing itself when a previous run
// was abandoned.
func (s ReviewStatus) CanTransition(next ReviewStatus) bool {
	switch next {
	case StatusReviewing:
		return true
	case StatusCompleted, StatusFailed:
		return s == StatusReviewing
	}
	return false
}

// Submission holds the fields of a task submission that the review pipeline
// reads or writes.
type Submission struct {
	ID                string          `json:"id"`
	TaskID            string          `json:"task_id"`
	SubmissionContent string          `json:"submission_content"`
	ReviewStatus      ReviewStatus    `json:"ai_review_status"`
	Score             *int            `json:"ai_score"`
	Feedback          *review.Verdict `json:"ai_feedback"`
	ReviewedAt        *time.Time      `json:"reviewed_at"`
}

type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TechStack   []string `json:"tech_stack"`
	Difficulty  string   `json:"difficulty"`
}

// Store is the external submission/task record store. The pipeline only
// writes review fields; creating and deleting records is someone else's job.
type Store interface {
	GetSubmission(ctx context.Context, id string) (*Submission, error)
	GetTask(ctx context.Context, id string) (*Task, error)
	SetReviewStatus(ctx context.Context, submissionID string, status ReviewStatus) error
	CompleteReview(ctx context.Context, submissionID string, verdict review.Verdict, reviewedAt time.Time) error
}
