package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cvjob-dk/cvjob-backend/internal/auth"
	"github.com/cvjob-dk/cvjob-backend/internal/services"
)

type LetterHandler struct {
	LetterService *services.LetterService
}

func NewLetterHandler(letters *services.LetterService) *LetterHandler {
	return &LetterHandler{LetterService: letters}
}

// List is GET /letters.
func (h *LetterHandler) List(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	letters, err := h.LetterService.List(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list letters: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, letters)
}

// Get is GET /letters/:letterID.
func (h *LetterHandler) Get(c *gin.Context) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	letterID, ok := uintParam(c, "letterID")
	if !ok {
		return
	}
	letter, err := h.LetterService.GetByID(c.Request.Context(), user.ID, letterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "letter not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch letter: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, letter)
}
