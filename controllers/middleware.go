package controllers

import (
	"errors"
	"net/http"
	"strings"

	"yogastore-backend/services"
	"yogastore-backend/session"
	"yogastore-backend/utils"

	"github.com/gin-gonic/gin"
)

const tokenCookie = "token"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if token, err := c.Cookie(tokenCookie); err == nil {
		return token
	}
	return ""
}

// AuthMiddleware rejects requests without a live session.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			utils.RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			return
		}
		sess, err := auth.Resume(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrUnauthenticated) {
				utils.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired session")
				return
			}
			respondWithServiceError(c, err)
			return
		}
		session.Attach(c, sess)
		c.Next()
	}
}

// OptionalAuth attaches the session when a valid token is present and lets
// the request through either way.
func OptionalAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if sess, err := auth.Resume(c.Request.Context(), token); err == nil {
				session.Attach(c, sess)
			}
		}
		c.Next()
	}
}
