package router // package router defines how HTTP routes are registered for the API

import (
    "database/sql"

    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing
    "github.com/prometheus/client_golang/prometheus/promhttp"
    "github.com/redis/go-redis/v9"

    "github.com/stayease/hotel-reservation-api/internal/config"
    "github.com/stayease/hotel-reservation-api/internal/handler"    // import the handlers that implement business logic
    "github.com/stayease/hotel-reservation-api/internal/middleware" // import middleware for JWT authentication and rate limiting
)

// RegisterRoutes registers the operational endpoints on the provided
// Echo instance: liveness, DB-aware readiness and Prometheus metrics.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
    e.GET("/healthz", handler.Health)
    e.GET("/readyz", handler.Ready(db))
    e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPayment registers the payment API.  Initiation and status
// endpoints require a bearer token; the verify endpoints are public
// because the gateways redirect the payer's browser to them and cannot
// attach a user token.  All payment routes share the Redis token
// bucket, which absorbs callback storms and double-submitted forms.
func RegisterPayment(e *echo.Echo, h *handler.PaymentHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
    g := e.Group("/api/payment")
    g.Use(middleware.NewTokenBucket(rlCfg, rdb))

    // Gateway callbacks: unauthenticated by necessity, terminated by a
    // redirect in every case.
    g.GET("/esewa/verify", h.VerifyEsewa)
    g.GET("/khalti/verify", h.VerifyKhalti)

    // Customer-facing endpoints behind JWT auth.
    auth := g.Group("")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.POST("/cash", h.InitiateCash)
    auth.POST("/esewa/initiate", h.InitiateEsewa)
    auth.POST("/khalti/initiate", h.InitiateKhalti)
    auth.GET("/status/:reservationId", h.Status)
}
