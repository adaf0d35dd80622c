package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"athleteapi/internal/models"
	"athleteapi/internal/services"
)

type AuthHandler struct {
	verification services.VerificationService
	log          *zap.Logger
}

func NewAuthHandler(verification services.VerificationService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{verification: verification, log: log}
}

// @Summary      Start phone verification
// @Description  Sends a one-time code to the phone and returns the provider request ID
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.CheckPhoneRequest  true  "Phone to verify"
// @Success      200   {object}  models.CheckPhoneResponse
// @Failure      400   {object}  models.ErrorResponse
// @Failure      500   {object}  models.ErrorResponse
// @Router       /v1/auth/checkphone [post]
func (h *AuthHandler) CheckPhone(c *gin.Context) {
	var req models.CheckPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	requestID, err := h.verification.StartVerification(c.Request.Context(), req.Phone)
	if err != nil {
		respondError(c, h.log, "checkphone", err)
		return
	}
	c.JSON(http.StatusOK, models.CheckPhoneResponse{RequestID: requestID})
}

// @Summary      Confirm phone verification
// @Description  Checks the code and returns a session token for the verified phone
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.CheckCodeRequest  true  "Request ID and code"
// @Success      200   {object}  models.TokenResponse
// @Failure      400   {object}  models.ErrorResponse
// @Failure      404   {object}  models.ErrorResponse
// @Failure      500   {object}  models.ErrorResponse
// @Router       /v1/auth/checkcode [post]
func (h *AuthHandler) CheckCode(c *gin.Context) {
	var req models.CheckCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	token, err := h.verification.ConfirmVerification(c.Request.Context(), req.RequestID, req.Code)
	if err != nil {
		respondError(c, h.log, "checkcode", err)
		return
	}
	c.JSON(http.StatusOK, models.TokenResponse{Token: token})
}

// @Summary      Guest login
// @Description  Creates a guest user with the given nickname and returns a session token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.GuestRequest  true  "Nickname"
// @Success      200   {object}  models.TokenResponse
// @Failure      400   {object}  models.ErrorResponse
// @Failure      500   {object}  models.ErrorResponse
// @Router       /v1/auth/guest [post]
func (h *AuthHandler) Guest(c *gin.Context) {
	var req models.GuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	token, err := h.verification.GuestLogin(c.Request.Context(), *req.Nickname)
	if err != nil {
		respondError(c, h.log, "guest", err)
		return
	}
	c.JSON(http.StatusOK, models.TokenResponse{Token: token})
}
