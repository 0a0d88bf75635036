package http

import (
	"net/http"

	"github.com/digital-factory/projectstatus-backend/internal/auth"
	"github.com/digital-factory/projectstatus-backend/internal/project_status/domain"
	"github.com/gin-gonic/gin"
)

type createStatusReq struct {
	ProjectID      int     `json:"project_id" binding:"required,gt=0"`
	Health         string  `json:"health" binding:"required,health"`
	PlannedPercent float64 `json:"planned_percent" binding:"gte=0,lte=100"`
	ActualPercent  float64 `json:"actual_percent" binding:"gte=0,lte=100"`
	Activities     string  `json:"activities"`
	Issues         string  `json:"issues"`
	NextSteps      string  `json:"next_steps"`
}

func (r createStatusReq) draft() domain.StatusDraft {
	return domain.StatusDraft{
		ProjectID:      r.ProjectID,
		Health:         domain.Health(r.Health),
		PlannedPercent: r.PlannedPercent,
		ActualPercent:  r.ActualPercent,
		Activities:     r.Activities,
		Issues:         r.Issues,
		NextSteps:      r.NextSteps,
	}
}

func (h *Handler) createStatus(c *gin.Context) {
	var req createStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}

	id, err := h.submission.Create(c.Request.Context(), req.draft())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "id": id})
}

// sessionKey resolves the caller's draft session, writing the error
// response itself when that fails.
func (h *Handler) sessionKey(c *gin.Context) (string, bool) {
	key, err := h.submission.SessionKey(c.Request.Context(), auth.UserKey(c))
	if err != nil {
		respondError(c, err)
		return "", false
	}
	return key, true
}

func (h *Handler) currentSubmission(c *gin.Context) {
	key, ok := h.sessionKey(c)
	if !ok {
		return
	}
	sub, err := h.submission.Current(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submission": sub})
}

type selectProjectReq struct {
	ProjectID int `json:"project_id" binding:"required,gt=0"`
}

func (h *Handler) selectProject(c *gin.Context) {
	var req selectProjectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}

	key, ok := h.sessionKey(c)
	if !ok {
		return
	}
	sub, err := h.submission.SelectProject(c.Request.Context(), key, req.ProjectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submission": sub})
}

func (h *Handler) changeProject(c *gin.Context) {
	key, ok := h.sessionKey(c)
	if !ok {
		return
	}
	sub, err := h.submission.ChangeProject(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submission": sub})
}

type copyPreviousReq struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) setCopyPrevious(c *gin.Context) {
	var req copyPreviousReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}

	key, ok := h.sessionKey(c)
	if !ok {
		return
	}
	sub, err := h.submission.SetCopyPrevious(c.Request.Context(), key, *req.Enabled)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submission": sub})
}

type updateDraftReq struct {
	Health         *string  `json:"health" binding:"omitempty,health"`
	PlannedPercent *float64 `json:"planned_percent" binding:"omitempty,gte=0,lte=100"`
	ActualPercent  *float64 `json:"actual_percent" binding:"omitempty,gte=0,lte=100"`
	Activities     *string  `json:"activities"`
	Issues         *string  `json:"issues"`
	NextSteps      *string  `json:"next_steps"`
}

func (r updateDraftReq) patch() domain.DraftPatch {
	p := domain.DraftPatch{
		PlannedPercent: r.PlannedPercent,
		ActualPercent:  r.ActualPercent,
		Activities:     r.Activities,
		Issues:         r.Issues,
		NextSteps:      r.NextSteps,
	}
	if r.Health != nil {
		health := domain.Health(*r.Health)
		p.Health = &health
	}
	return p
}

func (h *Handler) updateDraft(c *gin.Context) {
	var req updateDraftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, bindError(err))
		return
	}

	key, ok := h.sessionKey(c)
	if !ok {
		return
	}
	sub, err := h.submission.UpdateDraft(c.Request.Context(), key, req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "submission": sub})
}

func (h *Handler) submit(c *gin.Context) {
	key, ok := h.sessionKey(c)
	if !ok {
		return
	}
	res, err := h.submission.Submit(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "result": res})
}
