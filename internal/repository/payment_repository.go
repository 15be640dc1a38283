package repository

import (
	"context"

	"app/internal/domain/model"
)

type PaymentRecordRepository interface {
	Create(ctx context.Context, rec model.PaymentRecord) (int64, error)
	FindByProviderRef(ctx context.Context, providerRef string) (model.PaymentRecord, error)

	// 注文に紐づく非終端（PENDING）のレコード。intent再利用の判定に使う。
	FindPendingByOrderID(ctx context.Context, orderID int64) (model.PaymentRecord, bool, error)

	// 条件付きステータス更新。行が動かなければfalse（すでに終端）。
	UpdateStatusIf(ctx context.Context, recordID int64, from, to model.PaymentStatus) (bool, error)
}

// Webhook重複排除台帳。
type WebhookEventRepository interface {
	Exists(ctx context.Context, eventID string) (bool, error)
	Create(ctx context.Context, ev model.ProcessedWebhookEvent) error
}
