package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cvjob-dk/cvjob-backend/internal/auth"
	"github.com/cvjob-dk/cvjob-backend/internal/cv"
	"github.com/cvjob-dk/cvjob-backend/internal/notify"
	"github.com/cvjob-dk/cvjob-backend/internal/services"
)

type CVHandler struct {
	Parser      *cv.Parser
	UserService *services.UserService
}

func NewCVHandler(parser *cv.Parser, users *services.UserService) *CVHandler {
	return &CVHandler{Parser: parser, UserService: users}
}

// Parse is POST /cv/parse: extracts text from an uploaded CV and stores it
// on the user's profile for the generation prompt.
func (h *CVHandler) Parse(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not open upload"})
		return
	}
	defer file.Close()

	text, err := h.Parser.ExtractText(fileHeader.Filename, file)
	if err != nil {
		msg := notify.TextFor("cv-parsing")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": msg.Help, "detail": err.Error()})
		return
	}

	if err := h.UserService.SetCVText(c.Request.Context(), user.ID, text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store CV text: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename": fileHeader.Filename,
		"text_len": len(text),
	})
}
