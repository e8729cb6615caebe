package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/johnquangdev/call-copilot/pkg/config"
)

// Router holds all handlers
type Router struct {
	cfg            *config.Config
	callHandler    *Call
	cueCardHandler *CueCard
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, callHandler *Call, cueCardHandler *CueCard) *Router {
	return &Router{
		cfg:            cfg,
		callHandler:    callHandler,
		cueCardHandler: cueCardHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := e.Group("/v1")

	rt.setupCallRoutes(v1)
	rt.setupCueCardRoutes(v1)
}

// setupCallRoutes configures call lifecycle and live transcript routes
func (rt *Router) setupCallRoutes(g *echo.Group) {
	callGroup := g.Group("/calls")

	if rt.callHandler != nil {
		callGroup.POST("", rt.callHandler.StartCall)
		callGroup.POST("/:id/segments", rt.callHandler.IngestSegment)
		callGroup.GET("/:id/snapshot", rt.callHandler.Snapshot)
		callGroup.POST("/:id/end", rt.callHandler.EndCall)
		callGroup.GET("/:id/report", rt.callHandler.GetReport)
		callGroup.GET("/:id/triggers", rt.callHandler.ListTriggers)
	} else {
		callGroup.POST("", rt.notImplemented)
		callGroup.POST("/:id/segments", rt.notImplemented)
		callGroup.GET("/:id/snapshot", rt.notImplemented)
		callGroup.POST("/:id/end", rt.notImplemented)
		callGroup.GET("/:id/report", rt.notImplemented)
		callGroup.GET("/:id/triggers", rt.notImplemented)
	}
}

// setupCueCardRoutes configures cue card feedback routes
func (rt *Router) setupCueCardRoutes(g *echo.Group) {
	cueGroup := g.Group("/cue-cards")

	if rt.cueCardHandler != nil {
		cueGroup.POST("/:id/feedback", rt.cueCardHandler.Feedback)
	} else {
		cueGroup.POST("/:id/feedback", rt.notImplemented)
	}
}

// notImplemented returns 501 Not Implemented response
func (rt *Router) notImplemented(c echo.Context) error {
	return c.JSON(http.StatusNotImplemented, map[string]interface{}{
		"error":   "This endpoint is not yet implemented",
		"path":    c.Request().URL.Path,
		"method":  c.Request().Method,
		"message": "Please initialize the required handler in main.go",
	})
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	env := "development"
	if rt.cfg != nil {
		env = rt.cfg.Server.Environment
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": env,
	})
}
