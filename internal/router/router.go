// Package router registers the HTTP routes of the webhook service.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/food-order-webhook/internal/handler"
)

// RegisterRoutes registers the probes that do not touch the webhook.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterWebhook maps the fulfillment endpoint.  The agent console is
// usually configured with the bare host, so "/" is served as well as
// "/webhook".  mw applies to the webhook routes only.
func RegisterWebhook(e *echo.Echo, h *handler.WebhookHandler, mw ...echo.MiddlewareFunc) {
	e.POST("/", h.Handle, mw...)
	e.POST("/webhook", h.Handle, mw...)
}
