package handler

import (
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 割引コードの事前チェック（読み取り専用）
type DiscountHandler struct {
	uc *usecase.DiscountUsecase
}

// DI
func NewDiscountHandler(uc *usecase.DiscountUsecase) *DiscountHandler {
	return &DiscountHandler{uc: uc}
}

func (h *DiscountHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/discounts/validate", h.validate)
}

func (h *DiscountHandler) validate(c echo.Context) error {
	code := c.QueryParam("code")

	out, err := h.uc.Validate(c.Request().Context(), code)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
