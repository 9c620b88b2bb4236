package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/petify/petify-api/internal/model"
	"github.com/petify/petify-api/internal/repository"
	"github.com/petify/petify-api/pkg/auth"
	apperrors "github.com/petify/petify-api/pkg/errors"
	"github.com/petify/petify-api/pkg/httputil"
)

const ContextCaller = "caller"

// RoleReader looks up a user's stored role.
type RoleReader interface {
	GetRole(ctx context.Context, id uuid.UUID) (model.Role, error)
}

type AuthMiddleware struct {
	verifier auth.TokenVerifier
	roles    RoleReader
}

func NewAuthMiddleware(verifier auth.TokenVerifier, roles RoleReader) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		roles:    roles,
	}
}

// Authenticate verifies the bearer token and loads the caller's role. The
// role is read on every request; nothing is cached.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.AbortWithError(c, apperrors.NewUnauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httputil.AbortWithError(c, apperrors.NewUnauthorized("invalid authorization format"))
			return
		}

		identity, err := m.verifier.Verify(parts[1])
		if err != nil {
			httputil.AbortWithError(c, apperrors.NewUnauthorized("invalid token"))
			return
		}

		role, err := m.roles.GetRole(c.Request.Context(), identity.UserID)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				httputil.AbortWithError(c, err)
				return
			}
			// Profiles are created by the auth backend asynchronously.
			role = model.RoleCustomer
		}

		c.Set(ContextCaller, model.Caller{
			UserID: identity.UserID,
			Email:  identity.Email,
			Role:   role,
		})
		c.Next()
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFrom(c)
		if !ok {
			httputil.AbortWithError(c, apperrors.NewUnauthorized("authentication required"))
			return
		}
		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}
		httputil.AbortWithError(c, apperrors.NewForbidden("insufficient permissions"))
	}
}

// CallerFrom returns the authenticated caller set by Authenticate.
func CallerFrom(c *gin.Context) (model.Caller, bool) {
	v, ok := c.Get(ContextCaller)
	if !ok {
		return model.Caller{}, false
	}
	caller, ok := v.(model.Caller)
	return caller, ok
}
