package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cvjob-dk/cvjob-backend/internal/auth"
	"github.com/cvjob-dk/cvjob-backend/internal/common"
	"github.com/cvjob-dk/cvjob-backend/internal/dtos"
	"github.com/cvjob-dk/cvjob-backend/internal/workflow"
)

// SessionHandler exposes the generation workflow to the SPA. A session maps
// to one mounted generator view on the client; the SPA opens it on mount,
// polls status, and deletes it on unmount.
type SessionHandler struct {
	Manager *workflow.Manager
}

func NewSessionHandler(manager *workflow.Manager) *SessionHandler {
	return &SessionHandler{Manager: manager}
}

// session resolves the orchestrator for the path id, enforcing ownership.
func (h *SessionHandler) session(c *gin.Context) (*workflow.Orchestrator, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}
	orch, ok := h.Manager.Get(c.Param("id"))
	if !ok || orch.User().ID != user.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown session"})
		return nil, false
	}
	return orch, true
}

// Open is POST /sessions.
func (h *SessionHandler) Open(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	id, _ := h.Manager.Open(user)
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

// Close is DELETE /sessions/:id.
func (h *SessionHandler) Close(c *gin.Context) {
	if _, ok := h.session(c); !ok {
		return
	}
	h.Manager.Close(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// Status is GET /sessions/:id/status.
func (h *SessionHandler) Status(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, orch.Status())
}

// Generate is POST /sessions/:id/generate. The workflow runs in the
// background; the SPA follows it via Status.
func (h *SessionHandler) Generate(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}

	var req dtos.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if err := workflow.ValidateJobForm(req.Job); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if orch.State() != workflow.StateIdle {
		c.JSON(http.StatusConflict, gin.H{"error": "a generation is already running"})
		return
	}

	go func() {
		// Errors surface through the session status; nothing to do here.
		_ = orch.SubmitJob(req.Job, req.Locale)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// Cancel is POST /sessions/:id/cancel.
func (h *SessionHandler) Cancel(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	orch.CancelGeneration()
	c.Status(http.StatusNoContent)
}

// ResetError is POST /sessions/:id/reset-error.
func (h *SessionHandler) ResetError(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	orch.ResetError()
	c.Status(http.StatusNoContent)
}

// SaveDraft is POST /sessions/:id/draft. Unlike Generate, failures are
// returned directly: the UI action awaits this call.
func (h *SessionHandler) SaveDraft(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	var form dtos.DraftForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	job, err := orch.SaveJobAsDraft(form.JobForm())
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// EditLetter is PUT /sessions/:id/letter.
func (h *SessionHandler) EditLetter(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	var req dtos.LetterEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if err := orch.EditLetter(req.Content); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orch.Status())
}

// SelectJob is POST /sessions/:id/jobs/:jobID/select: loads an existing
// posting into the session's working copy.
func (h *SessionHandler) SelectJob(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	jobID, ok := uintParam(c, "jobID")
	if !ok {
		return
	}
	if err := orch.FetchJob(jobID); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orch.Status())
}

// SelectLetter is POST /sessions/:id/letters/:letterID/select.
func (h *SessionHandler) SelectLetter(c *gin.Context) {
	orch, ok := h.session(c)
	if !ok {
		return
	}
	letterID, ok := uintParam(c, "letterID")
	if !ok {
		return
	}
	if err := orch.FetchLetter(letterID); err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, orch.Status())
}

// writeAppError maps classified errors onto HTTP statuses.
func writeAppError(c *gin.Context, err error) {
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		if errors.Is(err, common.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	status := http.StatusInternalServerError
	switch appErr.Kind {
	case common.KindValidation:
		status = http.StatusBadRequest
	case common.KindAuth:
		status = http.StatusUnauthorized
	case common.KindTimeout:
		status = http.StatusGatewayTimeout
	case common.KindNetwork:
		status = http.StatusBadGateway
	case common.KindServer:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{
		"error":     appErr.Message,
		"kind":      string(appErr.Kind),
		"retryable": appErr.Retryable,
	})
}
