package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /payment-intents のHTTP
type PaymentHandler struct {
	uc *usecase.PaymentIntentUsecase
}

// DI
func NewPaymentHandler(uc *usecase.PaymentIntentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type CreateIntentRequest struct {
	OrderID int64 `json:"order_id"`
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/payment-intents", h.create)
}

func (h *PaymentHandler) create(c echo.Context) error {
	var req CreateIntentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateIntent(c.Request().Context(), req.OrderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
