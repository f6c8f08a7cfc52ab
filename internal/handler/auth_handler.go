package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ccmr-api/internal/models"
	"github.com/noah-isme/ccmr-api/internal/service"
	appErrors "github.com/noah-isme/ccmr-api/pkg/errors"
	"github.com/noah-isme/ccmr-api/pkg/response"
)

// AuthHandler serves the office login endpoint.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Login authenticates by email and password and issues an access token.
// The response body is the flat token-and-user shape the office front end
// already parses, not a wrapped envelope.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "Missing credentials"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res)
}
