package model

import (
	"fmt"
	"strings"
	"time"
)

// DiscountKind は割引の種別。データ境界で一度だけ解決して、
// 業務ロジック側では型付き定数のswitchだけにする。
type DiscountKind string

const (
	DiscountKindFixed   DiscountKind = "FIXED"
	DiscountKindPercent DiscountKind = "PERCENT"
)

// ParseDiscountKind はDBの文字列を閉じた列挙に変換する。未知の値はエラー。
func ParseDiscountKind(s string) (DiscountKind, error) {
	switch DiscountKind(strings.ToUpper(strings.TrimSpace(s))) {
	case DiscountKindFixed:
		return DiscountKindFixed, nil
	case DiscountKindPercent:
		return DiscountKindPercent, nil
	}
	return "", fmt.Errorf("unknown discount kind: %q", s)
}

// 割引コード。code は大文字で保存する（照合はcase-insensitive）。
// times_used は usage_limit を超えない。加算は必ず条件付きUPDATE。
type DiscountCode struct {
	ID               int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Code             string       `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Kind             DiscountKind `gorm:"type:varchar(16);not null" json:"kind"`
	ValueCents       int64        `gorm:"not null;default:0" json:"value_cents"`
	Percent          int64        `gorm:"not null;default:0" json:"percent"`
	MinSubtotalCents int64        `gorm:"not null;default:0" json:"min_subtotal_cents"` // 0なら下限なし
	UsageLimit       int64        `gorm:"not null;default:0" json:"usage_limit"`        // 0なら無制限
	TimesUsed        int64        `gorm:"not null;default:0" json:"times_used"`
	IsActive         bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// AmountFor は subtotal に対する割引額を計算する。
// FIXED: min(subtotal, value)。合計は絶対に負にしない。
// PERCENT: floor(subtotal * percent / 100)。
func (d DiscountCode) AmountFor(subtotalCents int64) int64 {
	switch d.Kind {
	case DiscountKindFixed:
		if d.ValueCents > subtotalCents {
			return subtotalCents
		}
		return d.ValueCents
	case DiscountKindPercent:
		return subtotalCents * d.Percent / 100
	}
	return 0
}

// Exhausted は利用回数の上限に達しているかどうか。
func (d DiscountCode) Exhausted() bool {
	return d.UsageLimit > 0 && d.TimesUsed >= d.UsageLimit
}

// NormalizeDiscountCode は入力コードを保存形式（大文字・前後空白なし）に揃える。
func NormalizeDiscountCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
