// Package domain contains domain models for the application.
package domain

import (
	"fmt"
	"time"
)

// CreateSnippetForm is the form body posted when a reviewer saves a snippet.
type CreateSnippetForm struct {
	Snippet  string `form:"snippet"`
	Line     string `form:"line"`
	MisuseID string `form:"misuse_id"`
	Path     string `form:"path"`
}

// DeleteSnippetForm is the form body posted when a reviewer removes a snippet.
type DeleteSnippetForm struct {
	Path string `form:"path"`
}

// SnippetResponseDTO represents the response for a single snippet.
type SnippetResponseDTO struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_muid"`
	VersionID string `json:"version_muid"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Code      string `json:"snippet"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// MisuseSnippetsResponseDTO lists the snippets attached to a misuse's file.
type MisuseSnippetsResponseDTO struct {
	Misuse MisuseResponseDTO    `json:"misuse"`
	Items  []SnippetResponseDTO `json:"items"`
}

// SnippetKey is the business key of a snippet.
type SnippetKey struct {
	ProjectID string
	VersionID string
	File      string
	Line      int
}

func (k SnippetKey) String() string {
	return fmt.Sprintf("%s/%s/%s:%d", k.ProjectID, k.VersionID, k.File, k.Line)
}

// Snippet is a reviewer-maintained excerpt of source code at a file/line of a project version.
type Snippet struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_muid"`
	VersionID string    `json:"version_muid"`
	File      string    `json:"file"`
	Line      int       `json:"line"`
	Code      string    `json:"snippet"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the business key of s.
func (s Snippet) Key() SnippetKey {
	return SnippetKey{ProjectID: s.ProjectID, VersionID: s.VersionID, File: s.File, Line: s.Line}
}
