// Package router sets up the HTTP routes of the review site.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/roguepikachu/reviewsite/internal/http/handler"
	"github.com/roguepikachu/reviewsite/internal/http/middleware"
	"github.com/roguepikachu/reviewsite/pkg"
)

// NewRouter initializes the Gin engine with middleware and all routes.
func NewRouter(snippets *handler.Handler, health *handler.HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery())

	// form endpoints, answered with redirects
	r.POST(pkg.MisuseSnippetsPath, snippets.Create)
	r.POST(pkg.SnippetPath, snippets.Delete)

	api := r.Group(pkg.BasePath)
	api.GET(pkg.SnippetPath, snippets.Get)
	api.GET(pkg.MisuseSnippetsPath, snippets.ListForMisuse)

	r.GET(pkg.HealthCheckPath, handler.Health)
	r.GET(pkg.LivenessPath, health.Liveness)
	r.GET(pkg.ReadinessPath, health.Readiness)
	return r
}
