// Package httptransport builds the operator-facing REST surface: CRUD
// over hosts/scripts/schedules/executions/users plus the
// authorize/logout/loginstatus/unblock routes. None of it carries
// session invariants beyond calling into the same repositories the
// session tasks use.
package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/apimeister/unpatched-server/internal/health"
	"github.com/apimeister/unpatched-server/internal/transport/http/handler"
	"github.com/apimeister/unpatched-server/internal/transport/http/middleware"
)

// Handlers bundles every operator-facing handler the router wires up.
type Handlers struct {
	Auth      *handler.AuthHandler
	Host      *handler.HostHandler
	Script    *handler.ScriptHandler
	Schedule  *handler.ScheduleHandler
	Execution *handler.ExecutionHandler
	User      *handler.UserHandler
	Health    *health.Checker
}

// Verifier is the token-verification surface the Auth middleware needs.
type Verifier interface {
	Verify(raw string) (string, error)
}

func NewRouter(h Handlers, tokens Verifier, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sloggin.New(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, h.Health.Liveness(c.Request.Context()))
	})
	r.GET("/readyz", func(c *gin.Context) {
		result := h.Health.Readiness(c.Request.Context())
		status := 200
		if result.Status != "up" {
			status = 503
		}
		c.JSON(status, result)
	})

	// Public: authorize, logout, and loginstatus. The unblock
	// endpoint (below) is protected, not public.
	r.POST("/api/v1/authorize", h.Auth.Authorize)
	r.GET("/logout", h.Auth.Logout)
	r.GET("/loginstatus", h.Auth.LoginStatus)

	api := r.Group("/api/v1", middleware.Auth(tokens))

	hosts := api.Group("/hosts")
	hosts.POST("", h.Host.Create)
	hosts.GET("", h.Host.List)
	hosts.GET("/:id", h.Host.Get)
	hosts.GET("/:id/schedules", h.Host.ListSchedules)
	hosts.PATCH("/:id", h.Host.SetActive)
	hosts.DELETE("/:id", h.Host.Delete)

	scripts := api.Group("/scripts")
	scripts.POST("", h.Script.Create)
	scripts.GET("", h.Script.List)
	scripts.GET("/:id", h.Script.Get)
	scripts.DELETE("/:id", h.Script.Delete)

	schedules := api.Group("/schedules")
	schedules.POST("", h.Schedule.Create)
	schedules.GET("", h.Schedule.List)
	schedules.GET("/:id", h.Schedule.Get)
	schedules.PATCH("/:id", h.Schedule.SetActive)
	schedules.DELETE("/:id", h.Schedule.Delete)

	executions := api.Group("/executions")
	executions.GET("", h.Execution.List)
	executions.GET("/:id", h.Execution.Get)
	executions.DELETE("/:id", h.Execution.Delete)

	users := api.Group("/users")
	users.POST("", h.User.Create)
	users.GET("", h.User.List)
	users.DELETE("/:id", h.User.Delete)

	api.POST("/unblock/:id", h.User.Unblock)

	return r
}
