package model

import "time"

// 注文明細。購入時点のスナップショットで、商品マスタから切り離す。
type OrderItem struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         int64     `gorm:"not null;index" json:"order_id"`
	ProductID       int64     `gorm:"not null" json:"product_id"`
	VariantID       int64     `gorm:"not null" json:"variant_id"`
	SKU             string    `gorm:"type:varchar(64);not null" json:"sku"`
	NameSnapshot    string    `gorm:"type:varchar(255);not null;column:name_snapshot" json:"name"`
	SizeLabel       string    `gorm:"type:varchar(16)" json:"size_label,omitempty"`
	UnitPriceCents  int64     `gorm:"not null" json:"unit_price_cents"`
	Quantity        int64     `gorm:"not null" json:"quantity"`
	LineTotalCents  int64     `gorm:"not null" json:"line_total_cents"`
	CreatedAt       time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
