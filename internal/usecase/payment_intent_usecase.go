package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/infra/payment"
	repo "app/internal/repository"

	"github.com/rs/zerolog"
)

// PaymentIntentUsecase は注文に対するプロバイダintentを管理する。
// 同じ注文に2回呼んでもプロバイダ側にintentを2つ作らせない。
type PaymentIntentUsecase struct {
	tx       repo.TransactionManager
	provider payment.Provider
	logger   zerolog.Logger
	timeout  time.Duration
}

func NewPaymentIntentUsecase(
	tx repo.TransactionManager,
	provider payment.Provider,
	logger zerolog.Logger,
	timeout time.Duration,
) *PaymentIntentUsecase {
	return &PaymentIntentUsecase{
		tx:       tx,
		provider: provider,
		logger:   logger,
		timeout:  timeout,
	}
}

type CreateIntentOutput struct {
	OrderID         int64  `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Reused          bool   `json:"reused"`
}

func (u *PaymentIntentUsecase) CreateIntent(ctx context.Context, orderID int64) (CreateIntentOutput, error) {
	if orderID <= 0 {
		return CreateIntentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_id")
	}

	//まず読み取り：注文の状態と既存レコードを確認
	var (
		order  model.Order
		reused *model.PaymentRecord
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, CodeOrderNotFound)
		}
		if err != nil {
			return internalError()
		}
		order = o

		if o.Status != model.OrderStatusPending && o.Status != model.OrderStatusAwaitingPayment {
			return NewHTTPError(http.StatusConflict, CodeOrderNotPayable)
		}

		rec, found, err := r.Payments().FindPendingByOrderID(ctx, orderID)
		if err != nil {
			return internalError()
		}
		if found {
			reused = &rec
		}
		return nil
	})
	if err != nil {
		return CreateIntentOutput{}, err
	}

	//非終端レコードがあればそれを返す（プロバイダは呼ばない）
	if reused != nil {
		return CreateIntentOutput{
			OrderID:         orderID,
			PaymentIntentID: reused.ProviderRef,
			ClientSecret:    reused.ClientSecret,
			Reused:          true,
		}, nil
	}

	//プロバイダ呼び出しはDBトランザクションの外。タイムアウトで縛る。
	//失敗ならレコードは作らない、成功なら必ず保存してから返す（中途半端を残さない）。
	callCtx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	intent, err := u.provider.CreateIntent(callCtx, orderID, order.TotalCents, order.Currency)
	if err != nil {
		if errors.Is(err, payment.ErrCircuitOpen) {
			u.logger.Warn().Int64("order_id", orderID).Msg("payment provider circuit open")
			return CreateIntentOutput{}, NewHTTPError(http.StatusServiceUnavailable, "payment provider unavailable")
		}
		if pe, ok := payment.AsProviderError(err); ok && !pe.Retryable() {
			u.logger.Error().Err(err).Int64("order_id", orderID).Msg("payment provider rejected intent")
			return CreateIntentOutput{}, NewHTTPError(http.StatusBadGateway, "payment provider rejected request")
		}
		u.logger.Error().Err(err).Int64("order_id", orderID).Msg("payment provider call failed")
		return CreateIntentOutput{}, NewHTTPError(http.StatusBadGateway, "payment provider unavailable")
	}

	var out CreateIntentOutput

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//並行リクエストとの競合を再確認。負けた側は相手のintentを返す。
		//（こちらで作ったintentはプロバイダ側で未使用のまま失効する）
		rec, found, err := r.Payments().FindPendingByOrderID(ctx, orderID)
		if err != nil {
			return internalError()
		}
		if found {
			out = CreateIntentOutput{
				OrderID:         orderID,
				PaymentIntentID: rec.ProviderRef,
				ClientSecret:    rec.ClientSecret,
				Reused:          true,
			}
			return nil
		}

		now := time.Now()
		_, err = r.Payments().Create(ctx, model.PaymentRecord{
			OrderID:      orderID,
			ProviderRef:  intent.ID,
			ClientSecret: intent.ClientSecret,
			AmountCents:  order.TotalCents,
			Currency:     order.Currency,
			Status:       model.PaymentStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return internalError()
		}

		//PENDING→AWAITING_PAYMENT。リトライ等ですでに遷移済みならそのまま。
		if order.Status == model.OrderStatusPending {
			moved, err := r.Orders().UpdateStatusIf(ctx, orderID, model.OrderStatusPending, model.OrderStatusAwaitingPayment)
			if err != nil {
				return internalError()
			}
			if moved {
				if err := r.OrderEvents().Append(ctx, model.OrderEvent{
					OrderID:    orderID,
					Type:       model.OrderEventStatusChanged,
					FromStatus: model.OrderStatusPending,
					ToStatus:   model.OrderStatusAwaitingPayment,
					CreatedAt:  now,
				}); err != nil {
					return internalError()
				}
			}
		}

		out = CreateIntentOutput{
			OrderID:         orderID,
			PaymentIntentID: intent.ID,
			ClientSecret:    intent.ClientSecret,
			Reused:          false,
		}
		return nil
	})
	if err != nil {
		return CreateIntentOutput{}, err
	}

	u.logger.Info().
		Int64("order_id", orderID).
		Str("payment_ref", out.PaymentIntentID).
		Bool("reused", out.Reused).
		Msg("payment intent ready")

	return out, nil
}
