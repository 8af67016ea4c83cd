package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/famlink/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/famlink/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/famlink/internal/model"
)

// Handlers bundles every HTTP handler the API mounts. Fields left nil
// are skipped, which keeps tests free to wire only what they exercise.
type Handlers struct {
	Auth      *handler.AuthHandler
	Groups    *handler.GroupHandler
	Messages  *handler.MessageHandler
	Uploads   *handler.UploadHandler
	Assistant *handler.AssistantHandler
	Admin     *handler.AdminHandler
	Events    *handler.EventsHandler
}

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems use this to verify that the
	// service is up.
	e.GET("/healthz", handler.Health)
}

// RegisterAPI mounts the whole authenticated surface. Unauthenticated
// session operations live under /v1/auth; everything else lives under
// /v1 behind the JWT middleware. Operator-only routes add a role gate
// on top.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string) {
	// Session operations that start from the anonymous state.
	g := e.Group("/v1/auth")
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	// Logout takes a refresh token in the body rather than a JWT: the
	// refresh token itself proves possession of the session.
	g.POST("/logout", h.Auth.Logout)

	// Everything below requires a valid access token. Both roles may
	// pass; per-resource rules (membership, ownership, operator
	// override) are enforced by the services.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleMember, model.RoleOperator))

	auth.GET("/me", h.Auth.Me)
	auth.PATCH("/me", h.Auth.Rename)

	if h.Groups != nil {
		auth.POST("/groups", h.Groups.Create)
		auth.GET("/groups", h.Groups.List)
		auth.GET("/groups/:id", h.Groups.Get)
		auth.POST("/groups/join", h.Groups.Join)
		auth.DELETE("/groups/:id", h.Groups.Dissolve)
	}
	if h.Messages != nil {
		auth.GET("/groups/:id/messages", h.Messages.List)
		auth.POST("/groups/:id/messages", h.Messages.Send)
	}
	if h.Assistant != nil {
		auth.GET("/groups/:id/summary", h.Assistant.Summary)
		auth.GET("/groups/:id/icebreaker", h.Assistant.Icebreaker)
	}
	if h.Uploads != nil {
		auth.POST("/uploads", h.Uploads.Upload)
	}
	if h.Events != nil {
		auth.GET("/events", h.Events.Stream)
	}

	if h.Admin != nil {
		// Operators only: cross-account visibility and removal.
		admin := auth.Group("/admin")
		admin.Use(middleware.RequireRole(model.RoleOperator))
		admin.GET("/users", h.Admin.ListUsers)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
	}
}
