package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"code-review-backend/internal/review"
)

// MemoryStore keeps submissions and tasks in process memory. It backs local
// runs without DB_URL and the tests.
type MemoryStore struct {
	mu          sync.RWMutex
	submissions map[string]Submission
	tasks       map[string]Task
	// status history per submission, oldest first
	history map[string][]ReviewStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]Submission),
		tasks:       make(map[string]Task),
		history:     make(map[string][]ReviewStatus),
	}
}

// PutTask inserts or replaces a task.
func (m *MemoryStore) PutTask(t Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.TechStack = append([]string(nil), t.TechStack...)
	m.tasks[t.ID] = t
}

// PutSubmission inserts or replaces a submission. An empty status reads as
// pending.
func (m *MemoryStore) PutSubmission(s Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ReviewStatus == "" {
		s.ReviewStatus = StatusPending
	}
	m.submissions[s.ID] = s
}

func (m *MemoryStore) GetSubmission(_ context.Context, id string) (*Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return copySubmission(s), nil
}

func (m *MemoryStore) GetTask(_ context.Context, id string) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	t.TechStack = append([]string(nil), t.TechStack...)
	return &t, nil
}

func (m *MemoryStore) SetReviewStatus(_ context.Context, submissionID string, status ReviewStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid review status %q", status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[submissionID]
	if !ok {
		return fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
	}
	s.ReviewStatus = status
	m.submissions[submissionID] = s
	m.history[submissionID] = append(m.history[submissionID], status)
	return nil
}

func (m *MemoryStore) CompleteReview(_ context.Context, submissionID string, verdict review.Verdict, reviewedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[submissionID]
	if !ok {
		return fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
	}
	score := verdict.Score
	v := copyVerdict(verdict)
	at := reviewedAt
	s.ReviewStatus = StatusCompleted
	s.Score = &score
	s.Feedback = &v
	s.ReviewedAt = &at
	m.submissions[submissionID] = s
	m.history[submissionID] = append(m.history[submissionID], StatusCompleted)
	return nil
}

// StatusHistory returns every status written for a submission, oldest first.
func (m *MemoryStore) StatusHistory(submissionID string) []ReviewStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]ReviewStatus(nil), m.history[submissionID]...)
}

func copySubmission(s Submission) *Submission {
	out := s
	if s.Score != nil {
		n := *s.Score
		out.Score = &n
	}
	if s.Feedback != nil {
		v := copyVerdict(*s.Feedback)
		out.Feedback = &v
	}
	if s.ReviewedAt != nil {
		t := *s.ReviewedAt
		out.ReviewedAt = &t
	}
	return &out
}

func copyVerdict(v review.Verdict) review.Verdict {
	out := v
	out.SecurityIssues = append([]review.SecurityIssue{}, v.SecurityIssues...)
	out.Strengths = append([]string{}, v.Strengths...)
	out.Improvements = append([]string{}, v.Improvements...)
	return out
}
