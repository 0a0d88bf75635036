package routes

import (
	"github.com/digital-factory/projectstatus-backend/internal/auth"
	pshttp "github.com/digital-factory/projectstatus-backend/internal/project_status/http"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/service"

	"github.com/gin-gonic/gin"
)

type V1Deps struct {
	Dashboard   *service.DashboardService
	Submission  *service.SubmissionService
	DevIdentity bool
}

func RegisterV1(r *gin.Engine, dep V1Deps) {
	api := r.Group("/api/v1")
	api.Use(auth.RequireIdentity(dep.DevIdentity))

	pshttp.New(dep.Dashboard, dep.Submission).Register(api)
}
