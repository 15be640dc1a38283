package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// エラーコード（レスポンスのerrorフィールドにそのまま入る）
const (
	CodeEmptyCart           = "empty_cart"
	CodeStockConflict       = "stock_conflict"
	CodeInvalidDiscount     = "invalid_discount"
	CodeDiscountMinSubtotal = "discount_min_subtotal"
	CodeDiscountExhausted   = "discount_exhausted"
	CodeOrderNotFound       = "order_not_found"
	CodeOrderNotPayable     = "order_not_payable"
	CodeUnknownPaymentRef   = "unknown_payment_reference"
)

// 行ごとの在庫不足
type StockShortfall struct {
	ProductID int64  `json:"product_id"`
	SizeLabel string `json:"size_label,omitempty"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// 在庫競合。全行分の不足を持って409で返す（最初の1件だけでは直せない）。
type StockConflictError struct {
	Shortfalls []StockShortfall
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("stock conflict on %d line(s)", len(e.Shortfalls))
}

func AsStockConflict(err error) (*StockConflictError, bool) {
	var sc *StockConflictError
	ok := errors.As(err, &sc)
	return sc, ok
}

// 分類できないエラーはインフラ障害として500に落とす
func internalError() error {
	return NewHTTPError(http.StatusInternalServerError, "internal error")
}
