// Package service contains business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roguepikachu/reviewsite/internal/apperror"
	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
	"github.com/roguepikachu/reviewsite/pkg/logger"
	"github.com/roguepikachu/reviewsite/pkg/retry"
)

// MaxCodeBytes caps the size of a snippet body.
const MaxCodeBytes = 64 << 10

// CreateSnippetInput is what a reviewer submits to attach code to a misuse location.
type CreateSnippetInput struct {
	ProjectID string
	VersionID string
	MisuseID  string
	Code      string
	Line      int
}

// Service provides snippet-related business logic.
type Service struct {
	snippets repository.SnippetRepository
	misuses  repository.MisuseRepository
	clock    Clock
	newID    func() string
	retry    retry.Options
}

// Option configures a Service.
type Option func(*Service)

// WithIDGenerator overrides how new snippet IDs are generated.
func WithIDGenerator(f func() string) Option { return func(s *Service) { s.newID = f } }

// WithRetry overrides the retry policy applied to conflicting writes.
func WithRetry(opts retry.Options) Option { return func(s *Service) { s.retry = opts } }

// NewService creates a new Service with default options.
func NewService(snippets repository.SnippetRepository, misuses repository.MisuseRepository, clock Clock) *Service {
	return NewServiceWithOptions(snippets, misuses, clock)
}

// NewServiceWithOptions creates a new Service applying opts over the defaults.
func NewServiceWithOptions(snippets repository.SnippetRepository, misuses repository.MisuseRepository, clock Clock, opts ...Option) *Service {
	s := &Service{
		snippets: snippets,
		misuses:  misuses,
		clock:    clock,
		newID:    generateID,
		retry: retry.Options{
			// first try plus three retries
			MaxAttempts: 4,
			Strategy:    retry.ExponentialBackoff(20 * time.Millisecond),
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// generateID returns a new unique ID for a snippet.
func generateID() string {
	return uuid.New().String()
}

// CreateSnippet resolves the misuse named by in.MisuseID and upserts the
// snippet at the misuse's file. Nothing is written when the misuse is unknown.
func (s *Service) CreateSnippet(ctx context.Context, in CreateSnippetInput) (domain.Snippet, error) {
	if in.MisuseID == "" {
		return domain.Snippet{}, apperror.ValidationFailed("misuse_id", "misuse_id is required")
	}
	if err := validateSnippet(in.ProjectID, in.VersionID, in.Code, in.Line); err != nil {
		return domain.Snippet{}, err
	}
	misuse, err := s.findMisuse(ctx, in.MisuseID)
	if err != nil {
		return domain.Snippet{}, err
	}
	return s.UpsertSnippet(ctx, in.ProjectID, in.VersionID, in.Code, in.Line, misuse.File)
}

// UpsertSnippet stores code at (projectID, versionID, file, line), creating
// the snippet on first use and overwriting its code afterwards.
func (s *Service) UpsertSnippet(ctx context.Context, projectID, versionID, code string, line int, file string) (domain.Snippet, error) {
	if err := validateSnippet(projectID, versionID, code, line); err != nil {
		return domain.Snippet{}, err
	}
	key := domain.SnippetKey{ProjectID: projectID, VersionID: versionID, File: file, Line: line}
	opts := s.retry
	opts.ShouldRetry = func(err error) bool { return errors.Is(err, repository.ErrConflict) }
	opts.OnRetry = func(attempt int, err error) {
		logger.With(ctx, map[string]any{"key": key.String(), "attempt": attempt}).Warn("snippet upsert conflict, retrying: " + err.Error())
	}
	out, err := retry.New[domain.Snippet](opts).Do(ctx, func() (domain.Snippet, error) {
		now := s.clock.Now()
		return s.snippets.Upsert(ctx, domain.Snippet{
			ID:        s.newID(),
			ProjectID: projectID,
			VersionID: versionID,
			File:      file,
			Line:      line,
			Code:      code,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return domain.Snippet{}, apperror.Conflict("snippet", key.String(), err)
		}
		return domain.Snippet{}, apperror.Persistence("upsert snippet", err)
	}
	logger.With(ctx, map[string]any{"id": out.ID, "key": key.String()}).Info("snippet saved")
	return out, nil
}

// DeleteSnippet removes the snippet with the given ID. An unknown ID is a NotFound error.
func (s *Service) DeleteSnippet(ctx context.Context, id string) error {
	if id == "" {
		return apperror.ValidationFailed("snippet_id", "snippet id is required")
	}
	removed, err := s.snippets.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("snippet", id)
		}
		return apperror.Persistence("delete snippet", err)
	}
	logger.With(ctx, map[string]any{"id": id, "key": removed.Key().String()}).Info("snippet deleted")
	return nil
}

// GetSnippet fetches a snippet by ID.
func (s *Service) GetSnippet(ctx context.Context, id string) (domain.Snippet, error) {
	snippet, err := s.snippets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Snippet{}, apperror.NotFound("snippet", id)
		}
		return domain.Snippet{}, apperror.Persistence("find snippet", err)
	}
	return snippet, nil
}

// ListSnippets returns the snippets of one file of a project version, ordered by line.
func (s *Service) ListSnippets(ctx context.Context, projectID, versionID, file string) ([]domain.Snippet, error) {
	items, err := s.snippets.ListByFile(ctx, projectID, versionID, file)
	if err != nil {
		return nil, apperror.Persistence("list snippets", err)
	}
	return items, nil
}

// ListMisuseSnippets resolves a misuse and lists the snippets of its file.
func (s *Service) ListMisuseSnippets(ctx context.Context, misuseID string) (domain.Misuse, []domain.Snippet, error) {
	misuse, err := s.findMisuse(ctx, misuseID)
	if err != nil {
		return domain.Misuse{}, nil, err
	}
	items, err := s.ListSnippets(ctx, misuse.ProjectID, misuse.VersionID, misuse.File)
	if err != nil {
		return domain.Misuse{}, nil, err
	}
	return misuse, items, nil
}

func (s *Service) findMisuse(ctx context.Context, id string) (domain.Misuse, error) {
	misuse, err := s.misuses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Misuse{}, apperror.NotFound("misuse", id)
		}
		return domain.Misuse{}, apperror.Persistence("find misuse", err)
	}
	return misuse, nil
}

func validateSnippet(projectID, versionID, code string, line int) error {
	switch {
	case projectID == "":
		return apperror.ValidationFailed("project_muid", "project is required")
	case versionID == "":
		return apperror.ValidationFailed("version_muid", "version is required")
	case line < 1:
		return apperror.ValidationFailed("line", "line must be a positive integer")
	case code == "":
		return apperror.ValidationFailed("snippet", "snippet is required")
	case len(code) > MaxCodeBytes:
		return apperror.ValidationFailed("snippet", "snippet is too large")
	}
	return nil
}
