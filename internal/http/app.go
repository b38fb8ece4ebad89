package httpapi

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fairyhunter13/property-admin-console/internal/config"
	httpopenapi "github.com/fairyhunter13/property-admin-console/internal/http/openapi"
	"github.com/fairyhunter13/property-admin-console/internal/obs"
	"github.com/fairyhunter13/property-admin-console/internal/store"
)

type App struct {
	Cfg      config.Config
	Store    *store.Store
	Metrics  *obs.Metrics
	Gatherer prometheus.Gatherer

	closing atomic.Bool
	started time.Time
}

// NewApp wires the handlers. A nil gatherer falls back to the default
// Prometheus registry.
func NewApp(cfg config.Config, st *store.Store, m *obs.Metrics, g prometheus.Gatherer) *App {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return &App{Cfg: cfg, Store: st, Metrics: m, Gatherer: g, started: time.Now()}
}

// StartShutdown makes every mutating endpoint answer 503.
func (a *App) StartShutdown() { a.closing.Store(true) }

func (a *App) rejectWhileClosing(c *gin.Context) bool {
	if a.closing.Load() {
		WriteJSONError(c, http.StatusServiceUnavailable, "shutting_down", "")
		return true
	}
	return false
}

// writeStoreError maps store errors onto the JSON error envelope.
func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteJSONError(c, http.StatusNotFound, "not_found", "")
	case errors.Is(err, store.ErrStale):
		WriteJSONError(c, http.StatusConflict, "stale_write", "a newer update was already applied")
	default:
		WriteJSONError(c, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (a *App) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime_sec": time.Since(a.started).Seconds(),
	})
}

func (a *App) openapiHandler(c *gin.Context) {
	c.Data(http.StatusOK, "application/yaml", httpopenapi.YAML)
}

func (a *App) docsHandler(c *gin.Context) {
	const html = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Property Service API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}
