package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	WebhookOutcomeSucceeded = "succeeded"
	WebhookOutcomeFailed    = "failed"
)

// WebhookUsecase はプロバイダの非同期通知を処理する。
// 配送はat-least-once・順不同。台帳＋条件付き更新で何回来ても結果は1回分。
type WebhookUsecase struct {
	tx     repo.TransactionManager
	events *events.Publisher
	logger zerolog.Logger
}

func NewWebhookUsecase(tx repo.TransactionManager, publisher *events.Publisher, logger zerolog.Logger) *WebhookUsecase {
	return &WebhookUsecase{tx: tx, events: publisher, logger: logger}
}

type WebhookInput struct {
	EventID     string
	ProviderRef string
	Outcome     string
}

// Process は検証済み（署名・形式）のイベントを適用する。
// 戻りのerrorがnilなら200を返してよい（新規でも重複でも）。
func (u *WebhookUsecase) Process(ctx context.Context, in WebhookInput) error {
	eventID := strings.TrimSpace(in.EventID)
	ref := strings.TrimSpace(in.ProviderRef)
	if eventID == "" || ref == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid event")
	}
	if in.Outcome != WebhookOutcomeSucceeded && in.Outcome != WebhookOutcomeFailed {
		return NewHTTPError(http.StatusBadRequest, "invalid outcome")
	}

	var (
		orderID   int64
		newStatus model.OrderStatus
		applied   bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 1. 台帳チェック。既知のイベントは副作用なしで成功
		seen, err := r.WebhookEvents().Exists(ctx, eventID)
		if err != nil {
			return internalError()
		}
		if seen {
			return nil
		}

		// 2. 支払いレコードを引く。無ければ404（台帳にも書かない＝後で再配送できる）
		rec, err := r.Payments().FindByProviderRef(ctx, ref)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, CodeUnknownPaymentRef)
		}
		if err != nil {
			return internalError()
		}

		now := time.Now()

		// 3. 終端ならステータスは触らず台帳にだけ記録（順不同・再配送に対して冪等）
		if !rec.Status.IsTerminal() {
			switch in.Outcome {
			case WebhookOutcomeSucceeded:
				if err := u.applySucceeded(ctx, r, rec, now); err != nil {
					return err
				}
				newStatus = model.OrderStatusPaid
			case WebhookOutcomeFailed:
				if err := u.applyFailed(ctx, r, rec, now); err != nil {
					return err
				}
				newStatus = model.OrderStatusFailed
			}
			orderID = rec.OrderID
			applied = true
		}

		// 4. 台帳への記録は状態変更と同じトランザクション
		if err := r.WebhookEvents().Create(ctx, model.ProcessedWebhookEvent{
			EventID:     eventID,
			ProviderRef: ref,
			Outcome:     in.Outcome,
			CreatedAt:   now,
		}); err != nil {
			return internalError()
		}
		return nil
	})
	if err != nil {
		return err
	}

	if applied {
		u.events.Publish(ctx, events.OrderEvent{
			EventID:    uuid.NewString(),
			Type:       "order.status_changed",
			OrderID:    orderID,
			Status:     string(newStatus),
			OccurredAt: time.Now(),
		})
		u.logger.Info().
			Int64("order_id", orderID).
			Str("payment_ref", ref).
			Str("outcome", in.Outcome).
			Msg("webhook applied")
	}

	return nil
}

// 支払い成功：CAPTURED＋注文PAID＋paid_atを1回だけ刻印。
func (u *WebhookUsecase) applySucceeded(ctx context.Context, r repo.TxRepos, rec model.PaymentRecord, now time.Time) error {
	moved, err := r.Payments().UpdateStatusIf(ctx, rec.ID, model.PaymentStatusPending, model.PaymentStatusCaptured)
	if err != nil {
		return internalError()
	}
	if !moved {
		//並行配送に負けた。相手が適用済みなのでここでは何もしない
		return nil
	}

	order, err := r.Orders().FindByID(ctx, rec.OrderID)
	if err != nil {
		return internalError()
	}

	if order.Status == model.OrderStatusPaid {
		return nil
	}
	if !model.CanTransition(order.Status, model.OrderStatusPaid) {
		//例：先にキャンセル済みの注文への入金。注文は動かさず
		//オペレーター向けに記録だけ残す（返金は手動オペレーション）。
		u.logger.Error().
			Int64("order_id", order.ID).
			Str("status", string(order.Status)).
			Str("payment_ref", rec.ProviderRef).
			Msg("captured payment for non-payable order")
		return r.OrderEvents().Append(ctx, model.OrderEvent{
			OrderID:   order.ID,
			Type:      model.OrderEventStatusChanged,
			Note:      "payment captured but order not payable: " + string(order.Status),
			CreatedAt: now,
		})
	}

	moved, err = r.Orders().UpdateStatusIf(ctx, order.ID, order.Status, model.OrderStatusPaid)
	if err != nil {
		return internalError()
	}
	if !moved {
		return nil
	}

	if err := r.Orders().StampPaidAtIfEmpty(ctx, order.ID, now); err != nil {
		return internalError()
	}

	return r.OrderEvents().Append(ctx, model.OrderEvent{
		OrderID:    order.ID,
		Type:       model.OrderEventStatusChanged,
		FromStatus: order.Status,
		ToStatus:   model.OrderStatusPaid,
		CreatedAt:  now,
	})
}

// 支払い失敗：レコードFAILED＋注文FAILED＋在庫戻し。
// intentは死んでいるので、買い直しは新しいチェックアウトで行う。
func (u *WebhookUsecase) applyFailed(ctx context.Context, r repo.TxRepos, rec model.PaymentRecord, now time.Time) error {
	moved, err := r.Payments().UpdateStatusIf(ctx, rec.ID, model.PaymentStatusPending, model.PaymentStatusFailed)
	if err != nil {
		return internalError()
	}
	if !moved {
		return nil
	}

	order, err := r.Orders().FindByID(ctx, rec.OrderID)
	if err != nil {
		return internalError()
	}

	if !model.CanTransition(order.Status, model.OrderStatusFailed) {
		//PAIDやCANCELED済みは動かさない
		return nil
	}

	moved, err = r.Orders().UpdateStatusIf(ctx, order.ID, order.Status, model.OrderStatusFailed)
	if err != nil {
		return internalError()
	}
	if !moved {
		return nil
	}

	//在庫を戻す（補償）
	items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
	if err != nil {
		return internalError()
	}
	for _, it := range items {
		if err := r.Inventory().IncreaseStock(ctx, it.VariantID, it.Quantity); err != nil {
			return internalError()
		}
	}

	return r.OrderEvents().Append(ctx, model.OrderEvent{
		OrderID:    order.ID,
		Type:       model.OrderEventPaymentFailed,
		FromStatus: order.Status,
		ToStatus:   model.OrderStatusFailed,
		CreatedAt:  now,
	})
}
