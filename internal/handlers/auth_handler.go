package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"studiorit/internal/logging"
	"studiorit/internal/models"
	"studiorit/internal/services"
)

type AuthHandler struct {
	userService services.UserService
	authService services.AuthService
}

func NewAuthHandler(userService services.UserService, authService services.AuthService) *AuthHandler {
	return &AuthHandler{userService: userService, authService: authService}
}

type updateRoleRequest struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// @Summary      Register
// @Description  Creates a volunteer account and returns an access token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "Account data"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, "auth", "register", err)
		return
	}
	token, exp, err := h.authService.IssueToken(user)
	if err != nil {
		respondError(c, "auth", "register", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":   "User registered successfully",
		"user":      user,
		"token":     token,
		"expiresAt": exp,
	})
}

// @Summary      Login
// @Description  Authenticates by email and password
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  map[string]interface{}
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, "auth", "login", err)
		return
	}
	token, exp, err := h.authService.IssueToken(user)
	if err != nil {
		respondError(c, "auth", "login", err)
		return
	}
	logging.Logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("[auth][login][ok]")
	c.JSON(http.StatusOK, gin.H{
		"message":   "Login successful",
		"user":      user,
		"token":     token,
		"expiresAt": exp,
	})
}

// @Summary   Current user profile
// @Tags      Auth
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  map[string]interface{}
// @Router    /api/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	user, err := h.userService.Profile(c.Request.Context(), a.ID)
	if err != nil {
		respondError(c, "auth", "profile", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// @Summary   Change a user's role (admin)
// @Tags      Auth
// @Accept    json
// @Produce   json
// @Security  BearerAuth
// @Param     body  body      updateRoleRequest  true  "Target user and role"
// @Success   200   {object}  map[string]interface{}
// @Failure   400   {object}  map[string]string
// @Failure   403   {object}  map[string]string
// @Failure   404   {object}  map[string]string
// @Router    /api/auth/update-role [put]
func (h *AuthHandler) UpdateRole(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req updateRoleRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.userService.UpdateUserRole(c.Request.Context(), a, req.UserID, req.Role)
	if err != nil {
		respondError(c, "auth", "update_role", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully", "user": user})
}
