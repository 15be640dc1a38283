package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	"app/internal/events"
	repo "app/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderUsecase は注文の参照と、管理用のステータス遷移。
// 遷移は状態機械（遷移表）が唯一の判定で、どの書き手もここを通る。
type OrderUsecase struct {
	tx     repo.TransactionManager
	events *events.Publisher
	logger zerolog.Logger
}

func NewOrderUsecase(tx repo.TransactionManager, publisher *events.Publisher, logger zerolog.Logger) *OrderUsecase {
	return &OrderUsecase{tx: tx, events: publisher, logger: logger}
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	SizeLabel string `json:"size_label,omitempty"`
	UnitPrice int64  `json:"unit_price_cents"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total_cents"`
}

type OrderEventOutput struct {
	Type       string    `json:"type"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type OrderOutput struct {
	ID            int64              `json:"id"`
	Status        string             `json:"status"`
	SubtotalCents int64              `json:"subtotal_cents"`
	DiscountCents int64              `json:"discount_cents"`
	TaxCents      int64              `json:"tax_cents"`
	ShippingCents int64              `json:"shipping_cents"`
	TotalCents    int64              `json:"total_cents"`
	Currency      string             `json:"currency"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []OrderItemOutput  `json:"items"`
	Events        []OrderEventOutput `json:"events,omitempty"`
}

// GetOrder は注文詳細（明細＋イベント履歴つき）。
// Webhook待ちのクライアントがポーリングで使う。
func (u *OrderUsecase) GetOrder(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return internalError()
		}

		items, evts, err := loadOrderChildren(ctx, r, orderID)
		if err != nil {
			return err
		}

		out = toOrderOutput(o, items, evts)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

type UpdateOrderStatusInput struct {
	Status string
}

// UpdateStatus は管理用の遷移エンドポイント。
// 遷移表に無いものは400で拒否し、ステータスは変えない。
// CANCELEDに落とすときは在庫を戻し、割引の使用回数も戻す。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, orderID int64, in UpdateOrderStatusInput) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	target, ok := model.ParseOrderStatus(in.Status)
	if !ok {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		out     OrderOutput
		changed bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return internalError()
		}

		// すでに同じなら何もしない（200）
		if o.Status == target {
			items, evts, err := loadOrderChildren(ctx, r, orderID)
			if err != nil {
				return err
			}
			out = toOrderOutput(o, items, evts)
			return nil
		}

		//遷移表が唯一の判定
		if !model.CanTransition(o.Status, target) {
			return NewHTTPError(http.StatusBadRequest, model.InvalidTransitionMessage(o.Status, target))
		}

		moved, err := r.Orders().UpdateStatusIf(ctx, orderID, o.Status, target)
		if err != nil {
			return internalError()
		}
		if !moved {
			//並行して別の遷移が勝った。最新を取り直して拒否する
			o2, err := r.Orders().FindByID(ctx, orderID)
			if err != nil {
				return internalError()
			}
			return NewHTTPError(http.StatusConflict, model.InvalidTransitionMessage(o2.Status, target))
		}

		now := time.Now()

		//キャンセル補償：在庫戻し＋割引使用回数戻し
		if target == model.OrderStatusCanceled {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return internalError()
			}
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.VariantID, it.Quantity); err != nil {
					return internalError()
				}
			}

			if o.DiscountCode != "" {
				d, derr := r.Discounts().FindByCode(ctx, o.DiscountCode)
				if derr == nil {
					if err := r.Discounts().DecrementUsage(ctx, d.ID); err != nil {
						return internalError()
					}
				} else if !errors.Is(derr, repo.ErrNotFound) {
					return internalError()
				}
			}
		}

		//イベントはステータス書き込みと同じトランザクション
		if err := r.OrderEvents().Append(ctx, model.OrderEvent{
			OrderID:    orderID,
			Type:       model.OrderEventStatusChanged,
			FromStatus: o.Status,
			ToStatus:   target,
			CreatedAt:  now,
		}); err != nil {
			return internalError()
		}

		o.Status = target
		items, evts, err := loadOrderChildren(ctx, r, orderID)
		if err != nil {
			return err
		}
		out = toOrderOutput(o, items, evts)
		changed = true
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}

	if changed {
		u.events.Publish(ctx, events.OrderEvent{
			EventID:    uuid.NewString(),
			Type:       "order.status_changed",
			OrderID:    orderID,
			Status:     string(target),
			OccurredAt: time.Now(),
		})
		u.logger.Info().Int64("order_id", orderID).Str("status", string(target)).Msg("order status updated")
	}

	return out, nil
}

func loadOrderChildren(ctx context.Context, r repo.TxRepos, orderID int64) ([]model.OrderItem, []model.OrderEvent, error) {
	items, err := r.OrderItems().ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, internalError()
	}
	evts, err := r.OrderEvents().ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, internalError()
	}
	return items, evts, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem, evts []model.OrderEvent) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.NameSnapshot,
			SizeLabel: it.SizeLabel,
			UnitPrice: it.UnitPriceCents,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotalCents,
		})
	}

	outEvents := make([]OrderEventOutput, 0, len(evts))
	for _, ev := range evts {
		outEvents = append(outEvents, OrderEventOutput{
			Type:       string(ev.Type),
			FromStatus: string(ev.FromStatus),
			ToStatus:   string(ev.ToStatus),
			Note:       ev.Note,
			CreatedAt:  ev.CreatedAt,
		})
	}

	return OrderOutput{
		ID:            o.ID,
		Status:        string(o.Status),
		SubtotalCents: o.SubtotalCents,
		DiscountCents: o.DiscountCents,
		TaxCents:      o.TaxCents,
		ShippingCents: o.ShippingCents,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
		PaidAt:        o.PaidAt,
		CreatedAt:     o.CreatedAt,
		Items:         outItems,
		Events:        outEvents,
	}
}
