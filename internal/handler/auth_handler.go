package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"testhub/internal/auth"
	"testhub/internal/model"
	"testhub/internal/service"
)

type AuthHandler struct {
	auth   *service.AuthService
	users  *service.UserService
	cookie auth.Cookie
	maxAge int
}

func NewAuthHandler(svc *service.AuthService, users *service.UserService, cookie auth.Cookie, maxAge int) *AuthHandler {
	return &AuthHandler{auth: svc, users: users, cookie: cookie, maxAge: maxAge}
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	ID    uint       `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

func viewOf(u *model.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// Register signs up a test engineer and logs them in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	user, token, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.cookie.Set(c, token, h.maxAge)
	c.JSON(http.StatusCreated, gin.H{"user": viewOf(user), "token": token})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	user, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	h.cookie.Set(c, token, h.maxAge)
	c.JSON(http.StatusOK, gin.H{"user": viewOf(user), "token": token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookie.Clear(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me reloads the caller so a role change shows up before the token expires.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(user))
}
