package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"code-review-backend/internal/review"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemoryStore_NotFound(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()

	_, err := ms.GetSubmission(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = ms.GetTask(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, ms.SetReviewStatus(ctx, "nope", StatusReviewing), ErrNotFound)
	assert.ErrorIs(t, ms.CompleteReview(ctx, "nope", review.Verdict{}, time.Now()), ErrNotFound)
}

func TestMemoryStore_DefaultsToPending(t *testing.T) {
	ms := NewMemoryStore()
	ms.PutSubmission(Submission{ID: "s1", TaskID: "t1"})

	sub, err := ms.GetSubmission(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, sub.ReviewStatus)
	assert.Nil(t, sub.Score)
	assert.Nil(t, sub.Feedback)
}

func TestMemoryStore_ReviewLifecycle(t *testing.T) {
	ms := NewMemoryStore()
	ctx := context.Background()
	ms.PutSubmission(Submission{ID: "s1", TaskID: "t1", SubmissionContent: "https://github.com/acme/widget"})

	require.NoError(t, ms.SetReviewStatus(ctx, "s1", StatusReviewing))
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	v := review.Verdict{Summary: "ok", Score: 82, Strengths: []string{"tidy"}}
	require.NoError(t, ms.CompleteReview(ctx, "s1", v, at))

	sub, err := ms.GetSubmission(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, sub.ReviewStatus)
	require.NotNil(t, sub.Score)
	assert.Equal(t, 82, *sub.Score)
	require.NotNil(t, sub.Feedback)
	assert.Equal(t, "ok", sub.Feedback.Summary)
	assert.Equal(t, at, *sub.ReviewedAt)
	assert.Equal(t, []ReviewStatus{StatusReviewing, StatusCompleted}, ms.StatusHistory("s1"))

	// callers get copies
	sub.Feedback.Strengths[0] = "changed"
	again, _ := ms.GetSubmission(ctx, "s1")
	assert.Equal(t, "tidy", again.Feedback.Strengths[0])
}

func TestMemoryStore_RejectsUnknownStatus(t *testing.T) {
	ms := NewMemoryStore()
	ms.PutSubmission(Submission{ID: "s1"})
	assert.Error(t, ms.SetReviewStatus(context.Background(), "s1", "approved"))
}

func TestReviewStatus_CanTransition(t *testing.T) {
	for _, from := range []ReviewStatus{StatusPending, StatusReviewing, StatusCompleted, StatusFailed} {
		assert.True(t, from.CanTransition(StatusReviewing), from)
	}
	assert.True(t, StatusReviewing.CanTransition(StatusCompleted))
	assert.True(t, StatusReviewing.CanTransition(StatusFailed))
	assert.False(t, StatusPending.CanTransition(StatusCompleted))
	assert.False(t, StatusCompleted.CanTransition(StatusFailed))
	assert.False(t, StatusFailed.CanTransition(StatusPending))
}
