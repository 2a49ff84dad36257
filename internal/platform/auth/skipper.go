package auth

import (
	"github.com/labstack/echo/v4"
)

// publicPaths lists route paths that bypass authentication.
var publicPaths = map[string]bool{
	"/health":         true,
	"/ready":          true,
	"/metrics":        true,
	"/api":            true,
	"/api/auth/login": true,
}

// AuthSkipper returns true for requests whose route should skip authentication.
func AuthSkipper(c echo.Context) bool {
	return IsPublicPath(c.Path())
}

// IsPublicPath reports whether the given route path is public.
func IsPublicPath(path string) bool {
	return publicPaths[path]
}
