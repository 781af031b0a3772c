package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"testhub/internal/apperr"
	"testhub/internal/auth"
	"testhub/internal/model"
	"testhub/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Create adds a user with any role.
func (h *UserHandler) Create(c *gin.Context) {
	var in service.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	user, err := h.users.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id", "User not found")
	if !ok {
		return
	}
	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id", "User not found")
	if !ok {
		return
	}
	var in service.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	user, err := h.users.Update(c.Request.Context(), id, in, true)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	id, ok := paramID(c, "id", "User not found")
	if !ok {
		return
	}
	var req struct {
		Role model.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	user, err := h.users.UpdateRole(c.Request.Context(), id, req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateProfile lets users edit themselves; admins may edit anyone. The role
// never changes here.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	id, ok := paramID(c, "id", "User not found")
	if !ok {
		return
	}
	claims := auth.CurrentUser(c)
	if claims == nil || (claims.UserID != id && claims.Role != model.RoleAdmin) {
		fail(c, apperr.Forbidden("Forbidden: Insufficient permissions"))
		return
	}
	var in service.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	user, err := h.users.Update(c.Request.Context(), id, in, false)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id", "User not found")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
