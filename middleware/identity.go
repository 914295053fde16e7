// Package middleware provides the identity middleware: it decodes an
// optional bearer auth token into a caller identity and attaches it to the
// request context. It enforces nothing by itself; route-level gates and the
// services decide what an identity may do.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/mediqr-dev/mediqr/domain"
	"github.com/mediqr-dev/mediqr/services"
)

// identityContextKey is the echo context key holding the *domain.Identity.
const identityContextKey = "auth_identity"

type errorBody struct {
	Message string `json:"message"`
}

// Identity returns echo middleware that decodes the Authorization header
// when present. An invalid or expired token is treated as absent: routes
// that require authentication reject it downstream, everything else keeps
// working unauthenticated.
func Identity(tokens *services.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return next(c)
			}

			claims, err := tokens.VerifyAuthToken(parts[1])
			if err != nil {
				log.Debug().Err(err).Msg("ignoring invalid auth token")
				return next(c)
			}

			c.Set(identityContextKey, &domain.Identity{
				UserID: claims.UserID,
				Role:   claims.Role,
				Name:   claims.Name,
				Email:  claims.Email,
			})
			return next(c)
		}
	}
}

// IdentityFrom returns the caller identity attached by Identity, or nil for
// an unauthenticated request.
func IdentityFrom(c echo.Context) *domain.Identity {
	identity, _ := c.Get(identityContextKey).(*domain.Identity)
	return identity
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if IdentityFrom(c) == nil {
			return c.JSON(http.StatusUnauthorized, errorBody{Message: "Authentication required"})
		}
		return next(c)
	}
}

// RequireRole rejects requests whose caller is not authenticated as the
// given role.
func RequireRole(role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := IdentityFrom(c)
			if identity == nil {
				return c.JSON(http.StatusUnauthorized, errorBody{Message: "Authentication required"})
			}
			if identity.Role != role {
				return c.JSON(http.StatusForbidden, errorBody{Message: "Forbidden: insufficient role"})
			}
			return next(c)
		}
	}
}
