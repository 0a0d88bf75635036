package http

import "github.com/gin-gonic/gin"

// Register attaches the project status routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.dashboardView)
	rg.GET("/dashboard/export.xlsx", h.exportDashboard)

	rg.GET("/projects", h.listProjects)
	rg.GET("/projects/:id/updates", h.projectUpdates)
	rg.GET("/allocations", h.allocations)

	rg.GET("/me", h.me)
	rg.GET("/me/projects", h.myProjects)

	rg.POST("/statuses", h.createStatus)

	sub := rg.Group("/submission")
	sub.GET("", h.currentSubmission)
	sub.PUT("/project", h.selectProject)
	sub.DELETE("/project", h.changeProject)
	sub.PUT("/copy-previous", h.setCopyPrevious)
	sub.PATCH("/draft", h.updateDraft)
	sub.POST("/submit", h.submit)
}
