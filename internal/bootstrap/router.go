package bootstrap

import (
	"net/http"

	httpapi "github.com/digital-factory/projectstatus-backend/internal/api/http"
	"github.com/digital-factory/projectstatus-backend/internal/api/http/middleware"
	"github.com/digital-factory/projectstatus-backend/internal/api/http/routes"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	Environment    string
	AllowedOrigins []string
	Health         httpapi.HealthDeps
	Dashboard      *service.DashboardService
	Submission     *service.SubmissionService
}

func corsConfig(env string, origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) > 0 {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	} else if env != "production" {
		cfg.AllowAllOrigins = true
	}
	cfg.AddAllowMethods("PATCH", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("Authorization", "X-User-Id", "X-User-Name", "X-User-Email", "X-Request-Id")
	cfg.AddExposeHeaders("Content-Disposition", "X-Request-Id")
	return cfg
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())

	cc := corsConfig(dep.Environment, dep.AllowedOrigins)
	if len(cc.AllowOrigins) > 0 || cc.AllowAllOrigins {
		r.Use(cors.New(cc))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Health)
	healthHandler.RegisterRoutes(r)

	routes.RegisterV1(r, routes.V1Deps{
		Dashboard:   dep.Dashboard,
		Submission:  dep.Submission,
		DevIdentity: dep.Environment == "development",
	})

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "route not found"})
	})

	return r
}
