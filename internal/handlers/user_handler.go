package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"athleteapi/internal/middleware"
	"athleteapi/internal/services"
)

type UserHandler struct {
	users services.UserService
	log   *zap.Logger
}

func NewUserHandler(users services.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// @Summary      Current user
// @Tags         Users
// @Produce      json
// @Param        t    header    string  true  "Session token"
// @Success      200  {object}  models.User
// @Failure      401  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /v1/users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c.Request.Context())
	if !ok {
		respondError(c, h.log, "me", services.ErrUnauthenticated)
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, "me", err)
		return
	}
	c.JSON(http.StatusOK, user)
}
