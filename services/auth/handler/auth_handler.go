package handler

import (
	"context"
	"net/http"

	model "auction-house/internal/models"
	"auction-house/services/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, name, email, password string) (model.User, error)
	Login(ctx context.Context, email, password string) (string, model.User, error)
	SetBanned(ctx context.Context, actor model.User, userID string, banned bool) (model.User, error)
}

type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterHandler handles POST /auth/register
func (h *AuthHandler) RegisterHandler(c *gin.Context) {
	var req helpers.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "RegisterHandler", err)
		return
	}

	u, err := h.service.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		helpers.HandleServiceError(c, "RegisterHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, u, "account created successfully")
	helpers.LogSuccess("RegisterHandler", "account created successfully", map[string]any{
		"user_id": u.UserID,
	})
}

// LoginHandler handles POST /auth/login
func (h *AuthHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	token, u, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.HandleServiceError(c, "LoginHandler", err, map[string]any{"email": req.Email})
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.LoginResponse{Token: token, User: u}, "login successful")
	helpers.LogSuccess("LoginHandler", "login successful", map[string]any{"user_id": u.UserID})
}

// BanUserHandler handles POST /admin/users/:user_id/ban
func (h *AuthHandler) BanUserHandler(c *gin.Context) {
	h.setBanned(c, true, "user banned successfully")
}

// UnbanUserHandler handles DELETE /admin/users/:user_id/ban
func (h *AuthHandler) UnbanUserHandler(c *gin.Context) {
	h.setBanned(c, false, "user unbanned successfully")
}

func (h *AuthHandler) setBanned(c *gin.Context, banned bool, message string) {
	actor, ok := helpers.CurrentUser(c)
	if !ok {
		utils.JSONError(c, http.StatusUnauthorized, helpers.ErrMissingIdentity, "authentication required")
		return
	}

	userID := c.Param("user_id")
	u, err := h.service.SetBanned(c.Request.Context(), actor, userID, banned)
	if err != nil {
		helpers.HandleServiceError(c, "BanUserHandler", err, map[string]any{
			"user_id":  userID,
			"actor_id": actor.UserID,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, u, message)
	helpers.LogSuccess("BanUserHandler", message, map[string]any{
		"user_id":  u.UserID,
		"actor_id": actor.UserID,
		"banned":   u.IsBanned,
	})
}
