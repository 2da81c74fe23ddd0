package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// BreakerState reports the state of a circuit breaker ("closed", "open",
// "half-open").
type BreakerState interface {
	State() string
}

// Health answers load balancer health checks.  When the layout API client is
// configured its breaker state is included.
func Health(layoutAPI BreakerState) echo.HandlerFunc {
	return func(c echo.Context) error {
		body := echo.Map{"status": "ok"}
		if layoutAPI != nil {
			body["layout_api"] = layoutAPI.State()
		}
		return c.JSON(http.StatusOK, body)
	}
}
