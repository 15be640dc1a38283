package model

import "time"

type OrderEventType string

const (
	OrderEventCreated       OrderEventType = "ORDER_CREATED"
	OrderEventStatusChanged OrderEventType = "STATUS_CHANGED"
	OrderEventPaymentFailed OrderEventType = "PAYMENT_FAILED"
)

// 注文イベント（追記専用の監査ログ）。
// ステータスを書いたトランザクションと同じトランザクションで必ず書く。
type OrderEvent struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64          `gorm:"not null;index" json:"order_id"`
	Type       OrderEventType `gorm:"type:varchar(32);not null" json:"type"`
	FromStatus OrderStatus    `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus   OrderStatus    `gorm:"type:varchar(20)" json:"to_status,omitempty"`
	Note       string         `gorm:"type:varchar(255)" json:"note,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}
