package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"code-review-backend/internal/github"
	"code-review-backend/internal/pipeline"
	"code-review-backend/internal/review"
	"code-review-backend/internal/store"
	"code-review-backend/internal/types"
)

func (s *Server) handleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	var req types.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, types.ReviewResponse{Error: "invalid JSON body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reviewTimeout)
	defer cancel()
	verdict, err := s.reviews.Review(ctx, req.SubmissionID, req.GitHubURL)
	s.writeReviewResult(w, r, verdict, err)
}

func (s *Server) handleRemark(w http.ResponseWriter, r *http.Request) {
	var req types.RemarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeJSON(w, http.StatusBadRequest, types.ReviewResponse{Error: "invalid JSON body"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), reviewTimeout)
	defer cancel()
	verdict, err := s.reviews.Remark(ctx, chi.URLParam(r, "id"), req.GitHubURL)
	s.writeReviewResult(w, r, verdict, err)
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	sub, err := s.store.GetSubmission(r.Context(), id)
	if err != nil {
		code := statusFor(err)
		if code == http.StatusInternalServerError {
			s.log.Error("load submission", zap.String("submission_id", id), zap.Error(err))
		}
		s.writeError(w, code, publicMessage(err))
		return
	}
	s.writeJSON(w, http.StatusOK, types.SubmissionReviewResponse{
		SubmissionID:   sub.ID,
		AIReviewStatus: string(sub.ReviewStatus),
		AIScore:        sub.Score,
		AIFeedback:     sub.Feedback,
		ReviewedAt:     sub.ReviewedAt,
	})
}

func (s *Server) writeReviewResult(w http.ResponseWriter, r *http.Request, verdict review.Verdict, err error) {
	if err == nil {
		s.writeJSON(w, http.StatusOK, types.ReviewResponse{Success: true, Feedback: &verdict})
		return
	}
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("review request failed", zap.String("path", r.URL.Path), zap.Int("status", code), zap.Error(err))
	}
	s.writeJSON(w, code, types.ReviewResponse{Error: publicMessage(err)})
}

// statusFor maps pipeline and store errors to HTTP status codes. Not found
// is checked first since it arrives wrapped in a persistence error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrReviewInProgress):
		return http.StatusConflict
	case errors.Is(err, github.ErrInvalidRepoURL):
		return http.StatusUnprocessableEntity
	case errors.Is(err, review.ErrReviewerUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage keeps store and driver details out of responses.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "submission or task not found"
	case errors.Is(err, pipeline.ErrMissingInput):
		return pipeline.ErrMissingInput.Error()
	case errors.Is(err, pipeline.ErrReviewInProgress):
		return pipeline.ErrReviewInProgress.Error()
	case errors.Is(err, github.ErrInvalidRepoURL):
		return err.Error()
	case errors.Is(err, review.ErrReviewerUnavailable):
		return "AI review failed"
	case errors.Is(err, context.DeadlineExceeded):
		return "review timed out"
	default:
		return "internal error"
	}
}
