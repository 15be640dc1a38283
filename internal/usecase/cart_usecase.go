package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// CartUsecase は /cart の業務ロジック。
// カートはセッション所有で、チェックアウト仕様に合わせて丸ごと置き換える。
type CartUsecase struct {
	tx repo.TransactionManager
}

func NewCartUsecase(tx repo.TransactionManager) *CartUsecase {
	return &CartUsecase{tx: tx}
}

type CartItemResponse struct {
	ProductID int64  `json:"product_id"`
	SizeLabel string `json:"size_label,omitempty"`
	Price     int64  `json:"price_cents"`
	Quantity  int64  `json:"quantity"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total_cents"`
}

type ReplaceCartInput struct {
	Lines []CheckoutLineInput
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid session")
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveBySessionID(ctx, sessionID)
		if err != nil {
			return internalError()
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return internalError()
		}

		out = toCartResponse(items)
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// ReplaceCart は明細を丸ごと置き換える。価格はこの時点の現在値でスナップショット。
func (u *CartUsecase) ReplaceCart(ctx context.Context, sessionID string, in ReplaceCartInput) (CartResponse, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid session")
	}
	for _, ln := range in.Lines {
		if ln.ProductID <= 0 || ln.Quantity < 1 {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid line")
		}
	}

	var out CartResponse

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().GetOrCreateActiveBySessionID(ctx, sessionID)
		if err != nil {
			return internalError()
		}

		items := make([]model.CartItem, 0, len(in.Lines))
		for _, ln := range in.Lines {
			p, err := r.Products().FindByID(ctx, ln.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}
			if err != nil {
				return internalError()
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "invalid product")
			}

			v, err := r.Variants().FindByProductAndSize(ctx, ln.ProductID, strings.TrimSpace(ln.SizeLabel))
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "invalid variant")
			}
			if err != nil {
				return internalError()
			}

			items = append(items, model.CartItem{
				ProductID:         p.ID,
				VariantID:         v.ID,
				SizeLabel:         v.SizeLabel,
				Quantity:          ln.Quantity,
				UnitPriceSnapshot: p.PriceCents,
			})
		}

		if err := r.CartItems().ReplaceAll(ctx, cart.ID, items); err != nil {
			return internalError()
		}

		out = toCartResponse(items)
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// ClearCart は明細を空にする。
func (u *CartUsecase) ClearCart(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return NewHTTPError(http.StatusBadRequest, "invalid session")
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveBySessionID(ctx, sessionID)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return internalError()
		}

		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return internalError()
		}
		return nil
	})
}

func toCartResponse(items []model.CartItem) CartResponse {
	out := CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	for _, it := range items {
		out.Items = append(out.Items, CartItemResponse{
			ProductID: it.ProductID,
			SizeLabel: it.SizeLabel,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
		out.Total += it.UnitPriceSnapshot * it.Quantity
	}
	return out
}
