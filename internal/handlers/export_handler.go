package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cvjob-dk/cvjob-backend/internal/auth"
	"github.com/cvjob-dk/cvjob-backend/internal/export"
)

type ExportHandler struct {
	Service *export.Service
}

func NewExportHandler(svc *export.Service) *ExportHandler {
	return &ExportHandler{Service: svc}
}

// Applications is GET /export/applications: streams an XLSX workbook of the
// user's postings and letters.
func (h *ExportHandler) Applications(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	data, err := h.Service.ApplicationsXLSX(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Export failed: " + err.Error()})
		return
	}

	filename := "ansoegninger-" + time.Now().Format("2006-01-02") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
