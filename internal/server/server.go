package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"code-review-backend/internal/config"
	"code-review-backend/internal/db"
	"code-review-backend/internal/github"
	"code-review-backend/internal/pipeline"
	"code-review-backend/internal/review"
	"code-review-backend/internal/store"
	"code-review-backend/internal/types"
)

// reviewTimeout bounds one review request end to end.
const reviewTimeout = 3 * time.Minute

// ReviewRunner runs and re-runs submission reviews.
type ReviewRunner interface {
	Review(ctx context.Context, submissionID, repoURL string) (review.Verdict, error)
	Remark(ctx context.Context, submissionID, repoURL string) (review.Verdict, error)
}

type Server struct {
	router   *chi.Mux
	cfg      config.Config
	log      *zap.Logger
	store    store.Store
	database *db.DB
	reviews  ReviewRunner
}

func NewServer(ctx context.Context, cfg config.Config, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}

	spec, err := review.LoadReviewerSpec(cfg.ReviewSpecFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer spec: %w", err)
	}
	oc := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		oc.BaseURL = cfg.OpenAIBaseURL
	}
	reviewer := review.NewReviewer(openai.NewClientWithConfig(oc), cfg.Model, spec, cfg.ReviewerTimeout)

	// Initialize database if DB_URL is provided
	var (
		database *db.DB
		st       store.Store
	)
	if cfg.DatabaseURL != "" {
		database, err = db.New(ctx, cfg.DatabaseURL, log.Named("db"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		log.Info("database connection established")
		if cfg.RunMigrations {
			if err := database.RunMigrations(ctx, cfg.MigrationsDir); err != nil {
				database.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}
		st = store.NewDatabaseStore(database, log.Named("store"))
	} else {
		log.Warn("DB_URL not provided, using in-memory submission store")
		st = store.NewMemoryStore()
	}

	repos := github.NewClient(github.Options{
		APIBase:     cfg.GitHubAPIBase,
		RawBase:     cfg.GitHubRawBase,
		Token:       githubToken(cfg, log),
		Timeout:     cfg.GitHubTimeout,
		Concurrency: cfg.FetchConcurrency,
	}, log.Named("github"))

	p := pipeline.New(st, repos, reviewer, log.Named("pipeline"))
	return newServer(cfg, log, st, database, p), nil
}

func newServer(cfg config.Config, log *zap.Logger, st store.Store, database *db.DB, reviews ReviewRunner) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AllowedOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	s := &Server{
		router:   r,
		cfg:      cfg,
		log:      log,
		store:    st,
		database: database,
		reviews:  reviews,
	}
	s.routes()
	return s
}

// githubToken prefers GITHUB_TOKEN and falls back to the token file.
func githubToken(cfg config.Config, log *zap.Logger) string {
	if tok := strings.TrimSpace(cfg.GitHubToken); tok != "" {
		return tok
	}
	tok, err := store.NewFileTokenStore(cfg.GitHubTokenFile).Read()
	if err != nil {
		log.Warn("could not read GitHub token file", zap.String("path", cfg.GitHubTokenFile), zap.Error(err))
		return ""
	}
	if tok == nil {
		log.Info("no GitHub token configured, using unauthenticated requests")
		return ""
	}
	return tok.AccessToken
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Post("/api/review-submission", s.handleReviewSubmission)
	s.router.Post("/api/submissions/{id}/remark", s.handleRemark)
	s.router.Get("/api/submissions/{id}/review", s.handleGetReview)
}

func (s *Server) Router() http.Handler { return s.router }

// Close releases the database connection, if any.
func (s *Server) Close() error {
	if s.database == nil {
		return nil
	}
	return s.database.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.database.HealthCheck(ctx); err != nil {
			s.log.Warn("health check failed", zap.Error(err))
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, types.ErrorResponse{Error: msg})
}
