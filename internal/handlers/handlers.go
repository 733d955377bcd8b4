// Package handlers wires the web form to the generator and session.
package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/qrstudio/qrstudio/internal/config"
	"github.com/qrstudio/qrstudio/internal/generator"
	"github.com/qrstudio/qrstudio/internal/session"
)

// Handler holds the dependencies of the HTTP handlers: the encoder
// service, the single-run session state, and configuration defaults.
type Handler struct {
	Cfg     *config.Config
	Log     *slog.Logger
	Service *generator.Service
	Session *session.Session
}

// New returns a Handler with a fresh generator service and idle session.
func New(cfg *config.Config, log *slog.Logger) *Handler {
	return &Handler{
		Cfg:     cfg,
		Log:     log,
		Service: generator.New(),
		Session: session.New(),
	}
}

// Register installs all routes on r. The HTML templates must already be
// loaded on the engine for the page routes to render.
func (h *Handler) Register(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.POST("/generate", h.Generate)
		api.GET("/qr", h.Image)
		api.POST("/save", h.Save)
		api.GET("/status", h.Status)
	}
	r.GET("/", h.Index)
}
