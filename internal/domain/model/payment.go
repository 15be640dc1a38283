package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusCaptured PaymentStatus = "CAPTURED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

// IsTerminal はこれ以上変化しない支払いステータスかどうか。
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCaptured || s == PaymentStatusFailed
}

// 決済プロバイダのintent 1件につき1行。provider_ref はプロバイダ側のID。
// 1注文につきCAPTUREDは最大1件。
type PaymentRecord struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID      int64         `gorm:"not null;index" json:"order_id"`
	ProviderRef  string        `gorm:"type:varchar(255);not null;uniqueIndex" json:"provider_ref"`
	ClientSecret string        `gorm:"type:varchar(255);not null" json:"-"`
	AmountCents  int64         `gorm:"not null" json:"amount_cents"`
	Currency     string        `gorm:"type:varchar(3);not null" json:"currency"`
	Status       PaymentStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	CreatedAt    time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// Webhook重複排除の台帳。event_id のユニーク制約が再配送の盾になる。
// 副作用と同じトランザクションで書く。
type ProcessedWebhookEvent struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EventID     string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"event_id"`
	ProviderRef string    `gorm:"type:varchar(255);not null;index" json:"provider_ref"`
	Outcome     string    `gorm:"type:varchar(16);not null" json:"outcome"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
