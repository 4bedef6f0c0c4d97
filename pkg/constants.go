// Package pkg provides shared types and constants for the review site API.
package pkg

// Common API path constants.
const (
	// BasePath is the root path for the JSON API.
	BasePath = "/api/v1"

	// HealthCheckPath is the endpoint for the legacy health check.
	HealthCheckPath = BasePath + "/health"
	// LivenessPath reports that the process is up.
	LivenessPath = HealthCheckPath + "/live"
	// ReadinessPath reports whether downstream stores answer.
	ReadinessPath = HealthCheckPath + "/ready"

	// MisuseSnippetsPath is the form endpoint creating a snippet for a misuse.
	MisuseSnippetsPath = "/projects/:project_muid/versions/:version_muid/misuses/:misuse_muid/snippets"
	// SnippetPath is the form endpoint deleting a snippet.
	SnippetPath = "/snippets/:snippet_id"
)
