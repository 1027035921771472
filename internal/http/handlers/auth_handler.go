// Coordinator auth HTTP handlers.
//
// This file exposes the session lifecycle endpoints:
//   - POST /login       (validate the shared coordinator credential)
//   - POST /logout      (drop the session)
//   - GET  /check-auth  (report session state; always 200)
//
// There is a single shared credential and no user accounts, so "auth" here is
// nothing more than marking the session as belonging to the coordinator.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/odautomation/od-backend/internal/http/middleware"
	"github.com/odautomation/od-backend/internal/services"
)

// LoginRequest is the JSON payload for a coordinator login.
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"coordinator"`
	Password string `json:"password" binding:"required"`
}

// CheckAuthResponse reports whether the current session is authenticated.
type CheckAuthResponse struct {
	Authenticated bool `json:"authenticated"`
}

// Login godoc
// @ID          login
// @Summary     Coordinator login
// @Description Validates the shared coordinator credential and starts a cookie session.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object} map[string]string
// @Failure     400  {object} handlers.ErrorResponse "Missing fields"
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Router      /login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		strings.TrimSpace(req.Username) == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password required")
		return
	}

	if err := h.authSvc.Login(req.Username, req.Password); err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "login failed")
		return
	}

	if err := middleware.MarkCoordinator(c); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not start session")
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "login successful"})
}

// Logout godoc
// @ID          logout
// @Summary     Coordinator logout
// @Description Clears the session cookie. Safe to call without a session.
// @Tags        Auth
// @Produce     json
//
// @Success     200  {object} map[string]string
// @Router      /logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if err := middleware.ClearCoordinator(c); err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not clear session")
		return
	}
	ok(c, http.StatusOK, gin.H{"message": "logged out"})
}

// CheckAuth godoc
// @ID          checkAuth
// @Summary     Report session state
// @Description Returns whether the caller holds a valid coordinator session. Always 200.
// @Tags        Auth
// @Produce     json
//
// @Success     200  {object} handlers.CheckAuthResponse
// @Router      /check-auth [get]
func (h *Handlers) CheckAuth(c *gin.Context) {
	ok(c, http.StatusOK, CheckAuthResponse{Authenticated: middleware.IsCoordinator(c)})
}
