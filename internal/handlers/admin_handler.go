package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"athleteapi/internal/models"
	"athleteapi/internal/services"
)

type AdminHandler struct {
	revocations  services.RevocationService
	passCodeHash []byte
	log          *zap.Logger
}

// NewAdminHandler takes the bcrypt hash of the admin pass code. With an empty
// hash the admin endpoints answer 404.
func NewAdminHandler(revocations services.RevocationService, passCodeHash string, log *zap.Logger) *AdminHandler {
	return &AdminHandler{revocations: revocations, passCodeHash: []byte(passCodeHash), log: log}
}

// @Summary      Ban a session token
// @Description  Adds the token to the revocation list. Requires a valid session token and the admin pass code.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        t     header    string                  true  "Session token"
// @Param        body  body      models.BanTokenRequest  true  "Token to ban and pass code"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  models.ErrorResponse
// @Failure      401   {object}  models.ErrorResponse
// @Failure      403   {object}  models.ErrorResponse
// @Failure      404   {object}  models.ErrorResponse
// @Router       /dev/tokens/ban [post]
func (h *AdminHandler) BanToken(c *gin.Context) {
	if len(h.passCodeHash) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req models.BanTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}
	if err := bcrypt.CompareHashAndPassword(h.passCodeHash, []byte(req.PassCode)); err != nil {
		h.log.Warn("ban token: wrong pass code")
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	if err := h.revocations.Revoke(c.Request.Context(), req.Token); err != nil {
		respondError(c, h.log, "ban token", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "banned"})
}
