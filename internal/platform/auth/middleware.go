package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type contextKey string

const userKey contextKey = "auth_user"

// Claims is the token payload: the subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	Role     string  `json:"role"`
	TenantID *string `json:"tenantId,omitempty"`
}

type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	// Skipper defaults to AuthSkipper.
	Skipper middleware.Skipper
}

// JWTMiddleware verifies the HS256 bearer token and stores the resulting
// AuthUser on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	skipper := cfg.Skipper
	if skipper == nil {
		skipper = AuthSkipper
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(t *jwt.Token) (interface{}, error) {
				return cfg.SigningKey, nil
			}, opts...)
			if err != nil || !token.Valid || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			user := AuthUser{
				ID:       claims.Subject,
				Role:     ParseRole(claims.Role),
				TenantID: claims.TenantID,
			}
			c.Set("user_id", user.ID)
			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))

			return next(c)
		}
	}
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user AuthUser) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (AuthUser, bool) {
	u, ok := ctx.Value(userKey).(AuthUser)
	return u, ok
}

// MustUser returns the authenticated user or a 401 error for handlers that
// run behind JWTMiddleware.
func MustUser(c echo.Context) (AuthUser, error) {
	u, ok := UserFromContext(c.Request().Context())
	if !ok {
		return AuthUser{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u, nil
}
