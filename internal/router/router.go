// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/cinema-parking-reservation/internal/handler"
	"github.com/iliyamo/cinema-parking-reservation/internal/middleware"
)

// Options carries the middleware shared by the parking routes.  Nil
// middleware is skipped.
type Options struct {
	JWTSecret      string
	Throttle       echo.MiddlewareFunc
	Cache          echo.MiddlewareFunc
	MetricsEnabled bool
}

// RegisterRoutes registers the probes and, when enabled, the Prometheus
// endpoint.  None of them require authentication.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadyHandler, metricsEnabled bool) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/readyz", ready.Ready)
	}
	if metricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}

// RegisterParking registers the parking API under /v1/parking.  Browsing
// lots is public and cached; everything touching reservations requires a
// customer or owner token.
func RegisterParking(e *echo.Echo, p *handler.ParkingHandler, opts Options) {
	g := e.Group("/v1/parking")

	public := chain(opts.Throttle, opts.Cache)
	g.GET("/lots", p.ListLots, public...)

	auth := g.Group("", chain(
		middleware.JWTAuth(opts.JWTSecret),
		middleware.RequireRole("OWNER", "CUSTOMER"),
		opts.Throttle,
	)...)
	auth.POST("/reservations/hold", p.CreateHold)
	auth.PUT("/reservations/:id/confirm", p.ConfirmHold)
	auth.DELETE("/reservations/:id", p.ReleaseHold)
	auth.GET("/reservations/:id", p.GetReservation)
	auth.GET("/my-reservations", p.ListMyReservations)
}

func chain(mw ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mw))
	for _, m := range mw {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
