package server

import (
	"app/internal/config"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	h.Cart.RegisterRoutes(e)
	h.Checkout.RegisterRoutes(e)
	h.Discount.RegisterRoutes(e)
	h.Payment.RegisterRoutes(e)
	h.Webhook.RegisterRoutes(e)
	h.Order.RegisterRoutes(e, cfg)
}
