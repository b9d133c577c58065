package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
	"auction-house/services/helpers"
	"auction-house/utils"

	"github.com/gin-gonic/gin"
)

// Authenticator resolves a bearer token to an account
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.User, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// AuthMiddleware parses the bearer token, resolves the account and stores
// it in the request context. Banned accounts are rejected here, before any
// handler runs.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.JSONError(c, http.StatusUnauthorized, helpers.ErrMissingIdentity, "authorization header required")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			status, message := helpers.MapErrorToHTTP(err)
			utils.JSONError(c, status, err, message)
			c.Abort()
			return
		}

		c.Set(helpers.CurrentUserKey, user)
		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin accounts
func RequireAdmin(c *gin.Context) {
	user, ok := helpers.CurrentUser(c)
	if !ok || !user.IsAdmin {
		utils.JSONError(c, http.StatusForbidden, auctionerrors.ErrForbidden, "admin access required")
		c.Abort()
		return
	}
	c.Next()
}
