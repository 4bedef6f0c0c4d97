package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/roguepikachu/reviewsite/internal/apperror"
	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/service"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

const (
	// TimeFormat is the standard format for time serialization.
	TimeFormat = "2006-01-02T15:04:05Z"
)

// SnippetService defines the handler's dependency contract.
type SnippetService interface {
	CreateSnippet(ctx context.Context, in service.CreateSnippetInput) (domain.Snippet, error)
	DeleteSnippet(ctx context.Context, id string) error
	GetSnippet(ctx context.Context, id string) (domain.Snippet, error)
	ListMisuseSnippets(ctx context.Context, misuseID string) (domain.Misuse, []domain.Snippet, error)
}

// Handler handles HTTP requests for snippets.
type Handler struct {
	svc     SnippetService
	baseURL string
}

// NewHandler constructs a Handler. baseURL is prefixed to redirect paths.
func NewHandler(svc SnippetService, baseURL string) *Handler {
	return &Handler{svc: svc, baseURL: strings.TrimRight(baseURL, "/")}
}

// Create handles the snippet form post and redirects back to the reviewer's page.
func (h *Handler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var form domain.CreateSnippetForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, apperror.ValidationFailed("", "malformed form body: "+err.Error()))
		return
	}
	target, err := redirectPath(form.Path)
	if err != nil {
		writeError(c, err)
		return
	}
	line, err := strconv.Atoi(form.Line)
	if err != nil {
		writeError(c, apperror.ValidationFailed("line", "line must be an integer"))
		return
	}

	snippet, err := h.svc.CreateSnippet(ctx, service.CreateSnippetInput{
		ProjectID: c.Param("project_muid"),
		VersionID: c.Param("version_muid"),
		MisuseID:  form.MisuseID,
		Code:      form.Snippet,
		Line:      line,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	logger.With(ctx, map[string]any{"id": snippet.ID, "misuse": form.MisuseID}).Debug("snippet posted")
	c.Redirect(http.StatusFound, h.baseURL+target)
}

// Delete handles the snippet delete form post and redirects back.
func (h *Handler) Delete(c *gin.Context) {
	var form domain.DeleteSnippetForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, apperror.ValidationFailed("", "malformed form body: "+err.Error()))
		return
	}
	target, err := redirectPath(form.Path)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.svc.DeleteSnippet(c.Request.Context(), c.Param("snippet_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.baseURL+target)
}

// Get returns one snippet as JSON.
func (h *Handler) Get(c *gin.Context) {
	snippet, err := h.svc.GetSnippet(c.Request.Context(), c.Param("snippet_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSnippetDTO(snippet))
}

// ListForMisuse returns the misuse and the snippets of its file as JSON.
func (h *Handler) ListForMisuse(c *gin.Context) {
	misuse, items, err := h.svc.ListMisuseSnippets(c.Request.Context(), c.Param("misuse_muid"))
	if err != nil {
		writeError(c, err)
		return
	}
	list := make([]domain.SnippetResponseDTO, 0, len(items))
	for _, s := range items {
		list = append(list, toSnippetDTO(s))
	}
	c.JSON(http.StatusOK, domain.MisuseSnippetsResponseDTO{
		Misuse: domain.MisuseResponseDTO{
			ID:          misuse.ID,
			ProjectID:   misuse.ProjectID,
			VersionID:   misuse.VersionID,
			File:        misuse.File,
			Method:      misuse.Method,
			Description: misuse.Description,
		},
		Items: list,
	})
}

// redirectPath validates the site-relative redirect target posted with a form.
func redirectPath(p string) (string, error) {
	if p == "" {
		return "/", nil
	}
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return "", apperror.ValidationFailed("path", "path must be site-relative")
	}
	return p, nil
}

func toSnippetDTO(s domain.Snippet) domain.SnippetResponseDTO {
	return domain.SnippetResponseDTO{
		ID:        s.ID,
		ProjectID: s.ProjectID,
		VersionID: s.VersionID,
		File:      s.File,
		Line:      s.Line,
		Code:      s.Code,
		CreatedAt: s.CreatedAt.UTC().Format(TimeFormat),
		UpdatedAt: s.UpdatedAt.UTC().Format(TimeFormat),
	}
}
