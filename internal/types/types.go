package types

import (
	"time"

	"code-review-backend/internal/review"
)

type ReviewRequest struct {
	SubmissionID string `json:"submission_id"`
	GitHubURL    string `json:"github_url"`
}

// RemarkRequest may omit GitHubURL to re-review the stored submission content.
type RemarkRequest struct {
	GitHubURL string `json:"github_url,omitempty"`
}

type ReviewResponse struct {
	Success  bool            `json:"success"`
	Feedback *review.Verdict `json:"feedback,omitempty"`
	Error    string          `json:"error,omitempty"`
}

type SubmissionReviewResponse struct {
	SubmissionID   string          `json:"submission_id"`
	AIReviewStatus string          `json:"ai_review_status"`
	AIScore        *int            `json:"ai_score"`
	AIFeedback     *review.Verdict `json:"ai_feedback"`
	ReviewedAt     *time.Time      `json:"reviewed_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
