package domain

// Misuse is a recorded API misuse under review. Snippets borrow its file.
type Misuse struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_muid"`
	VersionID   string `json:"version_muid"`
	File        string `json:"file"`
	Method      string `json:"method,omitempty"`
	Description string `json:"description,omitempty"`
}

// MisuseResponseDTO is the JSON view of a misuse.
type MisuseResponseDTO struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_muid"`
	VersionID   string `json:"version_muid"`
	File        string `json:"file"`
	Method      string `json:"method,omitempty"`
	Description string `json:"description,omitempty"`
}
