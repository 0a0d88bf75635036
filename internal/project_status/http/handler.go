package http

import (
	"github.com/digital-factory/projectstatus-backend/internal/project_status/service"
)

type Handler struct {
	dashboard  *service.DashboardService
	submission *service.SubmissionService
}

func New(dashboard *service.DashboardService, submission *service.SubmissionService) *Handler {
	RegisterValidators()
	return &Handler{dashboard: dashboard, submission: submission}
}
