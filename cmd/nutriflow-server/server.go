package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/nutriflow/nutriflow/internal/config"
	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/db"
	"github.com/nutriflow/nutriflow/internal/platform/metrics"
	"github.com/nutriflow/nutriflow/internal/platform/middleware"
)

type routeRegistrar interface {
	RegisterRoutes(api *echo.Group)
}

// newServer builds the echo instance: global middleware, probes, metrics and
// the authenticated /api group carrying every registrar's routes.
func newServer(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics, ready db.Pinger, registrars ...routeRegistrar) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(m.Middleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.UploadLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	e.GET("/health", db.LivenessHandler())
	e.GET("/ready", db.ReadinessHandler(ready))
	if m != nil {
		e.GET("/metrics", m.Handler())
	}
	e.GET("/api", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"name":    "nutriflow",
			"version": version,
			"status":  "ok",
		})
	})

	api := e.Group("/api")
	api.Use(auth.JWTMiddleware(auth.JWTConfig{
		SigningKey: []byte(cfg.JWTSecret),
		Issuer:     tokenIssuer,
	}))

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateLimitCfg))

	for _, r := range registrars {
		r.RegisterRoutes(api)
	}
	return e
}
