package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserHandler serves the role-gated greeting routes.
type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

func (h *UserHandler) Admin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome Admin"})
}

func (h *UserHandler) Coordinator(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome coordinator"})
}

func (h *UserHandler) User(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome user"})
}
