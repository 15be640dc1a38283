package model

import (
	"fmt"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusAwaitingPayment OrderStatus = "AWAITING_PAYMENT"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusFailed          OrderStatus = "FAILED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
)

// 注文ステータスの遷移表。ここに無い遷移は全部拒否。
// PAID / FAILED / CANCELED は終端。
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusAwaitingPayment, OrderStatusCanceled},
	OrderStatusAwaitingPayment: {OrderStatusPaid, OrderStatusFailed, OrderStatusCanceled},
	OrderStatusPaid:            {},
	OrderStatusFailed:          {},
	OrderStatusCanceled:        {},
}

// ParseOrderStatus は外部入力の文字列を閉じた列挙に変換する。
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case OrderStatusPending:
		return OrderStatusPending, true
	case OrderStatusAwaitingPayment:
		return OrderStatusAwaitingPayment, true
	case OrderStatusPaid:
		return OrderStatusPaid, true
	case OrderStatusFailed:
		return OrderStatusFailed, true
	case OrderStatusCanceled:
		return OrderStatusCanceled, true
	}
	return "", false
}

// CanTransition は from→to が遷移表にあるかを返す。
func CanTransition(from, to OrderStatus) bool {
	for _, t := range orderTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// AllowedTargets は from から行ける先の一覧（エラーメッセージ用）。
func AllowedTargets(from OrderStatus) []OrderStatus {
	targets := make([]OrderStatus, len(orderTransitions[from]))
	copy(targets, orderTransitions[from])
	return targets
}

// IsTerminal は以後どこにも遷移できないステータスかどうか。
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// InvalidTransitionMessage は拒否時のレスポンス文言。
func InvalidTransitionMessage(from, to OrderStatus) string {
	allowed := AllowedTargets(from)
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return fmt.Sprintf("Invalid transition from %s to %s; allowed: [%s]", from, to, strings.Join(names, ", "))
}

// 注文。金額は全部minor unit（セント）で持つ。
// total = subtotal - discount + tax + shipping をサーバ側で必ず再計算する。
type Order struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID      string      `gorm:"type:varchar(255);not null;index" json:"-"`
	Email          string      `gorm:"type:varchar(255)" json:"email,omitempty"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	SubtotalCents  int64       `gorm:"not null" json:"subtotal_cents"`
	DiscountCents  int64       `gorm:"not null" json:"discount_cents"`
	TaxCents       int64       `gorm:"not null" json:"tax_cents"`
	ShippingCents  int64       `gorm:"not null" json:"shipping_cents"`
	TotalCents     int64       `gorm:"not null" json:"total_cents"`
	Currency       string      `gorm:"type:varchar(3);not null" json:"currency"`
	DiscountCode   string      `gorm:"type:varchar(64)" json:"discount_code,omitempty"`
	IdempotencyKey string      `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	PaidAt         *time.Time  `json:"paid_at,omitempty"`

	// 配送先スナップショット（住所マスタが後で変わっても注文は変わらない）
	ShipName       string `gorm:"type:varchar(255);not null" json:"ship_name"`
	ShipLine1      string `gorm:"type:varchar(255);not null" json:"ship_line1"`
	ShipLine2      string `gorm:"type:varchar(255)" json:"ship_line2,omitempty"`
	ShipCity       string `gorm:"type:varchar(255);not null" json:"ship_city"`
	ShipPostalCode string `gorm:"type:varchar(32);not null" json:"ship_postal_code"`
	ShipCountry    string `gorm:"type:varchar(2);not null" json:"ship_country"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
