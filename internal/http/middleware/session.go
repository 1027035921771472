// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file wires cookie-backed sessions and the coordinator gate. There is a
// single shared coordinator credential and no per-user account model, so the
// session carries exactly one fact: whether the bearer has logged in as the
// coordinator.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// sessionCoordinatorKey is the session value set on successful login.
const sessionCoordinatorKey = "coordinator"

// SessionOptions configures the cookie session store.
//
// Secret signs (and authenticates) the session cookie. TTL bounds how long a
// login survives; expired cookies fail authentication and the bearer must log
// in again. Secure should be set whenever traffic is HTTPS end-to-end.
type SessionOptions struct {
	Secret string
	Name   string
	TTL    time.Duration
	Secure bool
}

// Sessions returns the session middleware backed by a signed cookie store.
// Install it before any handler that calls MarkCoordinator, ClearCoordinator,
// or IsCoordinator.
func Sessions(opt SessionOptions) gin.HandlerFunc {
	store := cookie.NewStore([]byte(opt.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(opt.TTL.Seconds()),
		HttpOnly: true,
		Secure:   opt.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(opt.Name, store)
}

// MarkCoordinator records a successful coordinator login in the session.
func MarkCoordinator(c *gin.Context) error {
	s := sessions.Default(c)
	s.Set(sessionCoordinatorKey, true)
	return s.Save()
}

// ClearCoordinator drops the session, logging the coordinator out. The cookie
// is expired client-side as well.
func ClearCoordinator(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}

// IsCoordinator reports whether the current session belongs to a logged-in
// coordinator.
func IsCoordinator(c *gin.Context) bool {
	v := sessions.Default(c).Get(sessionCoordinatorKey)
	b, ok := v.(bool)
	return ok && b
}

// RequireCoordinator returns a middleware that rejects requests whose session
// has not been marked by a coordinator login.
//
// Unauthenticated requests receive:
//
//	HTTP/1.1 401 Unauthorized
//	{
//	  "request_id": "<uuid>",
//	  "code":       "unauthorized",
//	  "message":    "authentication required"
//	}
func RequireCoordinator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsCoordinator(c) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "unauthorized",
			"message":    "authentication required",
		})
	}
}
