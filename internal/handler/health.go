package handler // declare the package name; contains HTTP handlers

import (
    "database/sql" // sql.DB is pinged by the readiness probe
    "net/http"     // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project

    "github.com/stayease/hotel-reservation-api/internal/database"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready returns a readiness handler that also pings the database, so a
// wedged connection pool takes the instance out of rotation before it
// starts failing payment callbacks.
func Ready(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        if err := database.HealthCheck(c.Request().Context(), db); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "error": err.Error()})
        }
        return c.String(http.StatusOK, "ok")
    }
}
