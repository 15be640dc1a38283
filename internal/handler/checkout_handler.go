package handler

import (
	"net/http"
	"strings"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type StockConflictResponse struct {
	Error       string                  `json:"error"`
	StockErrors []usecase.StockShortfall `json:"stock_errors"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if sc, ok := usecase.AsStockConflict(err); ok {
		return c.JSON(http.StatusConflict, StockConflictResponse{
			Error:       usecase.CodeStockConflict,
			StockErrors: sc.Shortfalls,
		})
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// セッションはヘッダで受け取る（ゲストチェックアウト）
func getSessionID(c echo.Context) string {
	return strings.TrimSpace(c.Request().Header.Get("X-Session-ID"))
}

// /checkout のHTTP
type CheckoutHandler struct {
	uc *usecase.CheckoutUsecase
}

// DI
func NewCheckoutHandler(uc *usecase.CheckoutUsecase) *CheckoutHandler {
	return &CheckoutHandler{uc: uc}
}

type CheckoutRequest struct {
	ShippingAddress usecase.AddressInput        `json:"shipping_address"`
	Email           string                      `json:"email"`
	DiscountCode    string                      `json:"discount_code"`
	IdempotencyKey  string                      `json:"idempotency_key"`
	Lines           []usecase.CheckoutLineInput `json:"lines"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/checkout", h.checkout)
}

func (h *CheckoutHandler) checkout(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//二重送信防止キーはbody優先、無ければヘッダからも受ける
	idemKey := strings.TrimSpace(req.IdempotencyKey)
	if idemKey == "" {
		idemKey = strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	}

	out, err := h.uc.Checkout(c.Request().Context(), usecase.CheckoutInput{
		SessionID:       getSessionID(c),
		ShippingAddress: req.ShippingAddress,
		Email:           req.Email,
		DiscountCode:    req.DiscountCode,
		IdempotencyKey:  idemKey,
		FallbackLines:   req.Lines,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
