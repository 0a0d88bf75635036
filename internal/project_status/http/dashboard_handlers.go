package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/digital-factory/projectstatus-backend/internal/project_status/export"
	"github.com/gin-gonic/gin"
)

func (h *Handler) dashboardView(c *gin.Context) {
	view, err := h.dashboard.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "dashboard": view})
}

func (h *Handler) exportDashboard(c *gin.Context) {
	view, err := h.dashboard.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteDashboard(&buf, view); err != nil {
		respondError(c, err)
		return
	}

	name := fmt.Sprintf("project-status-%s.xlsx", view.LastRefresh.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *Handler) listProjects(c *gin.Context) {
	cards, err := h.dashboard.ProjectCards(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": cards})
}

func (h *Handler) projectUpdates(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		badRequest(c, "invalid project id")
		return
	}

	updates, err := h.dashboard.ProjectUpdates(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": updates.Project, "updates": updates.Updates})
}

func (h *Handler) allocations(c *gin.Context) {
	allocs, err := h.dashboard.Allocations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "allocations": allocs})
}

func (h *Handler) me(c *gin.Context) {
	user, _, err := h.dashboard.Me(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

func (h *Handler) myProjects(c *gin.Context) {
	_, projects, err := h.dashboard.Me(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": projects})
}
