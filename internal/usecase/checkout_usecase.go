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

// 税・送料は外部ポリシー。純粋関数で注入する。
type TaxFunc func(taxableCents int64) int64
type ShippingFunc func(subtotalCents int64, country string) int64

// CheckoutUsecase はカートを注文に変える入口。
// 在庫減算・注文作成・割引使用回数の加算を1トランザクションで行う。
type CheckoutUsecase struct {
	tx       repo.TransactionManager
	events   *events.Publisher
	logger   zerolog.Logger
	currency string
	tax      TaxFunc
	shipping ShippingFunc
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	publisher *events.Publisher,
	logger zerolog.Logger,
	currency string,
	tax TaxFunc,
	shipping ShippingFunc,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:       tx,
		events:   publisher,
		logger:   logger,
		currency: currency,
		tax:      tax,
		shipping: shipping,
	}
}

type AddressInput struct {
	Name       string `json:"name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// サーバ側カートが消えたとき（セッションリセット等）のフォールバック行
type CheckoutLineInput struct {
	ProductID int64  `json:"product_id"`
	SizeLabel string `json:"size_label"`
	Quantity  int64  `json:"quantity"`
}

type CheckoutInput struct {
	SessionID       string
	ShippingAddress AddressInput
	Email           string
	DiscountCode    string
	IdempotencyKey  string
	FallbackLines   []CheckoutLineInput
}

type CheckoutOutput struct {
	OrderID       int64  `json:"order_id"`
	SubtotalCents int64  `json:"subtotal_cents"`
	DiscountCents int64  `json:"discount_cents"`
	TotalCents    int64  `json:"total_cents"`
	Currency      string `json:"currency"`
}

// 解決済みの注文予定行（カート由来 or フォールバック由来）
type resolvedLine struct {
	variant        model.ProductVariant
	product        model.Product
	quantity       int64
	unitPriceCents int64
}

func (u *CheckoutUsecase) Checkout(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	if strings.TrimSpace(in.SessionID) == "" {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid session")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	if err := validateAddress(in.ShippingAddress); err != nil {
		return CheckoutOutput{}, err
	}

	var out CheckoutOutput
	createdNow := false

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 1. 同じキーなら同じ結果（再検証も再減算もしない）
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, key)
		if err != nil {
			return internalError()
		}
		if found {
			out = toCheckoutOutput(existing)
			return nil
		}

		// 2. 有効な行を解決（カート優先、空ならフォールバック行）
		lines, err := u.resolveLines(ctx, r, in)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return NewHTTPError(http.StatusBadRequest, CodeEmptyCart)
		}

		// 3. 在庫チェック。不足は全行分集めてから409にする
		var shortfalls []StockShortfall
		for _, ln := range lines {
			avail, err := r.Inventory().Available(ctx, ln.variant.ID)
			if errors.Is(err, repo.ErrNotFound) {
				avail = 0
			} else if err != nil {
				return internalError()
			}
			if avail < ln.quantity {
				shortfalls = append(shortfalls, StockShortfall{
					ProductID: ln.variant.ProductID,
					SizeLabel: ln.variant.SizeLabel,
					Requested: ln.quantity,
					Available: avail,
				})
			}
		}
		if len(shortfalls) > 0 {
			return &StockConflictError{Shortfalls: shortfalls}
		}

		// 小計は行スナップショットから計算
		var subtotal int64 = 0
		for _, ln := range lines {
			subtotal += ln.unitPriceCents * ln.quantity
		}

		// 4. 割引（失敗の種類はそのまま伝える）
		var discount DiscountResult
		discountApplied := false
		if strings.TrimSpace(in.DiscountCode) != "" {
			discount, err = EvaluateIn(ctx, r, in.DiscountCode, subtotal)
			if err != nil {
				return err
			}
			discountApplied = true
		}

		// 5. 合計はサーバ側で再計算する
		taxable := subtotal - discount.AmountCents
		tax := u.tax(taxable)
		shipping := u.shipping(subtotal, in.ShippingAddress.Country)
		total := subtotal - discount.AmountCents + tax + shipping

		// 6. ここから先は全部成功するか全部無かったことになるか
		//    （在庫減算は条件付きUPDATE。判定直後に他の注文が勝つこともある）
		for _, ln := range lines {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ln.variant.ID, ln.quantity)
			if err != nil {
				return internalError()
			}
			if !ok {
				avail, aerr := r.Inventory().Available(ctx, ln.variant.ID)
				if aerr != nil {
					avail = 0
				}
				return &StockConflictError{Shortfalls: []StockShortfall{{
					ProductID: ln.variant.ProductID,
					SizeLabel: ln.variant.SizeLabel,
					Requested: ln.quantity,
					Available: avail,
				}}}
			}
		}

		if discountApplied {
			ok, err := r.Discounts().IncrementUsageIfAvailable(ctx, discount.Code.ID)
			if err != nil {
				return internalError()
			}
			if !ok {
				//判定後に他の注文が使い切った
				return NewHTTPError(http.StatusBadRequest, CodeDiscountExhausted)
			}
		}

		now := time.Now()
		order := model.Order{
			SessionID:      in.SessionID,
			Email:          strings.TrimSpace(in.Email),
			Status:         model.OrderStatusPending,
			SubtotalCents:  subtotal,
			DiscountCents:  discount.AmountCents,
			TaxCents:       tax,
			ShippingCents:  shipping,
			TotalCents:     total,
			Currency:       u.currency,
			IdempotencyKey: key,
			ShipName:       in.ShippingAddress.Name,
			ShipLine1:      in.ShippingAddress.Line1,
			ShipLine2:      in.ShippingAddress.Line2,
			ShipCity:       in.ShippingAddress.City,
			ShipPostalCode: in.ShippingAddress.PostalCode,
			ShipCountry:    in.ShippingAddress.Country,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if discountApplied {
			order.DiscountCode = discount.Code.Code
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			//競合（同時に同じキーが入った等）はもう一回検索して同じ結果を返す
			ex2, found2, err2 := r.Orders().FindByIdempotencyKey(ctx, key)
			if err2 == nil && found2 {
				out = toCheckoutOutput(ex2)
				return nil
			}
			return NewHTTPError(http.StatusConflict, "idempotency conflict")
		}

		//注文明細（購入時点スナップショット）
		items := make([]model.OrderItem, 0, len(lines))
		for _, ln := range lines {
			items = append(items, model.OrderItem{
				ProductID:      ln.product.ID,
				VariantID:      ln.variant.ID,
				SKU:            ln.variant.SKU,
				NameSnapshot:   ln.product.Name,
				SizeLabel:      ln.variant.SizeLabel,
				UnitPriceCents: ln.unitPriceCents,
				Quantity:       ln.quantity,
				LineTotalCents: ln.unitPriceCents * ln.quantity,
				CreatedAt:      now,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return internalError()
		}

		//注文イベント（作成）も同じトランザクションで
		if err := r.OrderEvents().Append(ctx, model.OrderEvent{
			OrderID:   orderID,
			Type:      model.OrderEventCreated,
			ToStatus:  model.OrderStatusPending,
			CreatedAt: now,
		}); err != nil {
			return internalError()
		}

		//カートをCHECKED_OUTにして明細をクリア（再注文防止）。
		//フォールバック行で来たときはカートが無いのでスキップ。
		cart, cerr := r.Carts().FindActiveBySessionID(ctx, in.SessionID)
		if cerr == nil {
			if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
				return internalError()
			}
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return internalError()
			}
		} else if !errors.Is(cerr, repo.ErrNotFound) {
			return internalError()
		}

		order.ID = orderID
		out = toCheckoutOutput(order)
		createdNow = true
		return nil
	})

	if err != nil {
		return CheckoutOutput{}, err
	}

	//冪等リプレイはここで終わり（イベントも出さない）
	if !createdNow {
		return out, nil
	}

	//コミット後にだけ配信する（失敗してもログだけ）
	u.events.Publish(ctx, events.OrderEvent{
		EventID:    uuid.NewString(),
		Type:       "order.created",
		OrderID:    out.OrderID,
		Status:     string(model.OrderStatusPending),
		TotalCents: out.TotalCents,
		Currency:   out.Currency,
		OccurredAt: time.Now(),
	})

	u.logger.Info().
		Int64("order_id", out.OrderID).
		Int64("total_cents", out.TotalCents).
		Str("currency", out.Currency).
		Msg("checkout completed")

	return out, nil
}

// resolveLines は永続カートを優先し、空ならフォールバック行を使う。
func (u *CheckoutUsecase) resolveLines(ctx context.Context, r repo.TxRepos, in CheckoutInput) ([]resolvedLine, error) {
	cart, err := r.Carts().FindActiveBySessionID(ctx, in.SessionID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, internalError()
	}

	if err == nil {
		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return nil, internalError()
		}
		if len(cartItems) > 0 {
			lines := make([]resolvedLine, 0, len(cartItems))
			for _, ci := range cartItems {
				v, p, err := u.lookupVariant(ctx, r, ci.ProductID, ci.SizeLabel)
				if err != nil {
					return nil, err
				}
				// カート行は追加時点の価格スナップショットを使う
				lines = append(lines, resolvedLine{
					variant:        v,
					product:        p,
					quantity:       ci.Quantity,
					unitPriceCents: ci.UnitPriceSnapshot,
				})
			}
			return lines, nil
		}
	}

	//フォールバック行（価格は現在値）
	lines := make([]resolvedLine, 0, len(in.FallbackLines))
	for _, fl := range in.FallbackLines {
		if fl.ProductID <= 0 || fl.Quantity < 1 {
			return nil, NewHTTPError(http.StatusBadRequest, "invalid line")
		}
		v, p, err := u.lookupVariant(ctx, r, fl.ProductID, fl.SizeLabel)
		if err != nil {
			return nil, err
		}
		lines = append(lines, resolvedLine{
			variant:        v,
			product:        p,
			quantity:       fl.Quantity,
			unitPriceCents: p.PriceCents,
		})
	}
	return lines, nil
}

func (u *CheckoutUsecase) lookupVariant(ctx context.Context, r repo.TxRepos, productID int64, sizeLabel string) (model.ProductVariant, model.Product, error) {
	p, err := r.Products().FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.ProductVariant{}, model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return model.ProductVariant{}, model.Product{}, internalError()
	}
	if !p.IsActive {
		return model.ProductVariant{}, model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}

	v, err := r.Variants().FindByProductAndSize(ctx, productID, strings.TrimSpace(sizeLabel))
	if errors.Is(err, repo.ErrNotFound) {
		return model.ProductVariant{}, model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid variant")
	}
	if err != nil {
		return model.ProductVariant{}, model.Product{}, internalError()
	}

	return v, p, nil
}

func validateAddress(a AddressInput) error {
	if strings.TrimSpace(a.Name) == "" ||
		strings.TrimSpace(a.Line1) == "" ||
		strings.TrimSpace(a.City) == "" ||
		strings.TrimSpace(a.PostalCode) == "" ||
		strings.TrimSpace(a.Country) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid shipping_address")
	}
	return nil
}

func toCheckoutOutput(o model.Order) CheckoutOutput {
	return CheckoutOutput{
		OrderID:       o.ID,
		SubtotalCents: o.SubtotalCents,
		DiscountCents: o.DiscountCents,
		TotalCents:    o.TotalCents,
		Currency:      o.Currency,
	}
}
