package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"athleteapi/internal/models"
)

type InfoHandler struct {
	info models.AppInfo
}

func NewInfoHandler(environment string) *InfoHandler {
	return &InfoHandler{info: models.AppInfo{
		Name:        "Athlete API",
		Versions:    []string{"v1"},
		Environment: environment,
	}}
}

// @Summary      API info
// @Tags         Info
// @Produce      json
// @Success      200  {object}  models.AppInfo
// @Router       / [get]
func (h *InfoHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}

func (h *InfoHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
