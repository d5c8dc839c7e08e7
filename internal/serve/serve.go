// Package serve exposes the analysis pipeline over HTTP for automation.
package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"droplet-analyzer/internal/analysis"
	"droplet-analyzer/internal/config"
	"droplet-analyzer/internal/results"
	"droplet-analyzer/internal/scan"
	"droplet-analyzer/internal/session"
	"droplet-analyzer/internal/version"
)

// AnalyzeRequest is the payload for POST /api/v1/analyze. Exactly one of
// SessionPath or Session must be given. ImagePath overrides the
// session's own image reference.
type AnalyzeRequest struct {
	ImagePath   string        `json:"image_path,omitempty"`
	SessionPath string        `json:"session_path,omitempty"`
	Session     *session.File `json:"session,omitempty"`
}

// AnalyzeResponse mirrors the batch CLI output.
type AnalyzeResponse struct {
	Records    []results.Row `json:"records"`
	Measured   int           `json:"measured"`
	Skipped    int           `json:"skipped"`
	Calibrated bool          `json:"calibrated"`
	PxPerMM    float64       `json:"px_per_mm,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type handler struct {
	cfg *config.Config
	log zerolog.Logger
	eng *analysis.Engine
}

// NewHandler builds the HTTP API around one analysis engine.
func NewHandler(cfg *config.Config, log zerolog.Logger) http.Handler {
	if cfg == nil {
		cfg = config.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	h := &handler{
		cfg: cfg,
		log: log.With().Str("component", "serve").Logger(),
		eng: analysis.New(cfg, log),
	}

	r.GET("/healthz", h.health)
	r.POST("/api/v1/analyze", h.analyze)

	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) analyze(c *gin.Context) {
	start := time.Now()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}

	sess, err := loadSession(req)
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid session", err)
		return
	}

	imagePath := req.ImagePath
	if imagePath == "" {
		if req.SessionPath != "" {
			imagePath = sess.ResolveImagePath(req.SessionPath)
		} else {
			imagePath = sess.ImagePath
		}
	}
	if imagePath == "" {
		h.respondError(c, http.StatusBadRequest, "invalid session",
			fmt.Errorf("no image path given"))
		return
	}

	sc, err := scan.Load(imagePath)
	if err != nil {
		h.respondError(c, http.StatusUnprocessableEntity, "failed to load scan", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout())
	defer cancel()

	rs, summary, err := h.eng.Run(ctx, sc, sess)
	if err != nil {
		status := http.StatusInternalServerError
		if ctx.Err() != nil {
			status = http.StatusGatewayTimeout
		}
		h.respondError(c, status, "analysis failed", err)
		return
	}

	h.log.Info().
		Str("image", imagePath).
		Int("measured", summary.Measured).
		Int("skipped", summary.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("analysis request completed")

	c.JSON(http.StatusOK, AnalyzeResponse{
		Records:    rs.Rows(),
		Measured:   summary.Measured,
		Skipped:    summary.Skipped,
		Calibrated: summary.Calibrated,
		PxPerMM:    summary.PxPerMM,
	})
}

func loadSession(req AnalyzeRequest) (*session.File, error) {
	switch {
	case req.Session != nil && req.SessionPath != "":
		return nil, fmt.Errorf("session and session_path are mutually exclusive")
	case req.Session != nil:
		return req.Session, nil
	case req.SessionPath != "":
		return session.Load(req.SessionPath)
	default:
		return nil, fmt.Errorf("either session or session_path is required")
	}
}

func (h *handler) requestTimeout() time.Duration {
	sec := h.cfg.Serve.RequestTimeoutSec
	if sec < 1 {
		sec = 30
	}
	return time.Duration(sec) * time.Second
}

func (h *handler) respondError(c *gin.Context, code int, message string, err error) {
	h.log.Error().Err(err).
		Int("status_code", code).
		Str("path", c.Request.URL.Path).
		Msg(message)

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
