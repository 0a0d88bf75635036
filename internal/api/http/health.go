package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a ping call, e.g. a redis client's Ping(ctx).Err().
type PingFunc func(ctx context.Context) error

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Backend   string    `json:"backend"`
	DB        string    `json:"db,omitempty"`
	Redis     string    `json:"redis,omitempty"`
	ListStore any       `json:"list_store,omitempty"`
}

type HealthDeps struct {
	Backend   string
	DB        Pinger
	Redis     PingFunc
	ListStats func() any
}

type HealthHandler struct {
	serviceName string
	version     string
	deps        HealthDeps
}

func NewHealthHandler(serviceName, version string, deps HealthDeps) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		deps:        deps,
	}
}

func probe(ctx context.Context, ping func(context.Context) error) string {
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := ping(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Backend:   h.deps.Backend,
		DB:        "disabled",
		Redis:     "disabled",
	}

	if h.deps.DB != nil {
		resp.DB = probe(c.Request.Context(), h.deps.DB.PingContext)
	}
	if h.deps.Redis != nil {
		resp.Redis = probe(c.Request.Context(), h.deps.Redis)
	}
	if resp.DB == "down" || resp.Redis == "down" {
		resp.Status = "degraded"
	}
	if h.deps.ListStats != nil {
		resp.ListStore = h.deps.ListStats()
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
