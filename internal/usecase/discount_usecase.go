package usecase

import (
	"context"
	"errors"
	"net/http"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

// DiscountUsecase は割引コードの検証と金額計算。
// Evaluateはチェックアウトのトランザクション内から呼ばれ、
// Validateは読み取り専用の事前チェックAPI（使用回数は絶対に触らない）。
type DiscountUsecase struct {
	tx repo.TransactionManager
}

func NewDiscountUsecase(tx repo.TransactionManager) *DiscountUsecase {
	return &DiscountUsecase{tx: tx}
}

type DiscountResult struct {
	Code        model.DiscountCode
	AmountCents int64
}

// EvaluateIn はtx内のreposで検証＋金額計算する。
// 失敗の種類（コード）はそのままHTTPErrorで呼び出し元へ伝える。
// 検証順（最初の失敗で打ち切り）: 存在→有効→使用回数→最低額。
func EvaluateIn(ctx context.Context, r repo.TxRepos, code string, subtotalCents int64) (DiscountResult, error) {
	d, err := r.Discounts().FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return DiscountResult{}, NewHTTPError(http.StatusBadRequest, CodeInvalidDiscount)
	}
	if err != nil {
		return DiscountResult{}, internalError()
	}

	if !d.IsActive {
		return DiscountResult{}, NewHTTPError(http.StatusBadRequest, CodeInvalidDiscount)
	}
	if d.Exhausted() {
		return DiscountResult{}, NewHTTPError(http.StatusBadRequest, CodeDiscountExhausted)
	}
	if d.MinSubtotalCents > 0 && subtotalCents < d.MinSubtotalCents {
		return DiscountResult{}, NewHTTPError(http.StatusBadRequest, CodeDiscountMinSubtotal)
	}

	return DiscountResult{
		Code:        d,
		AmountCents: d.AmountFor(subtotalCents),
	}, nil
}

// ValidateOutput は事前チェックAPIのレスポンス。
type ValidateOutput struct {
	Valid            bool   `json:"valid"`
	Reason           string `json:"reason,omitempty"`
	Kind             string `json:"kind,omitempty"`
	ValueCents       int64  `json:"value_cents,omitempty"`
	Percent          int64  `json:"percent,omitempty"`
	MinSubtotalCents int64  `json:"min_subtotal_cents,omitempty"`
}

// Validate は読み取り専用の事前チェック。使用回数は変更しない。
func (u *DiscountUsecase) Validate(ctx context.Context, code string) (ValidateOutput, error) {
	if model.NormalizeDiscountCode(code) == "" {
		return ValidateOutput{Valid: false, Reason: CodeInvalidDiscount}, nil
	}

	var out ValidateOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		d, err := r.Discounts().FindByCode(ctx, code)
		if errors.Is(err, repo.ErrNotFound) {
			out = ValidateOutput{Valid: false, Reason: CodeInvalidDiscount}
			return nil
		}
		if err != nil {
			return internalError()
		}

		if !d.IsActive {
			out = ValidateOutput{Valid: false, Reason: CodeInvalidDiscount}
			return nil
		}
		if d.Exhausted() {
			out = ValidateOutput{Valid: false, Reason: CodeDiscountExhausted}
			return nil
		}

		out = ValidateOutput{
			Valid:            true,
			Kind:             string(d.Kind),
			ValueCents:       d.ValueCents,
			Percent:          d.Percent,
			MinSubtotalCents: d.MinSubtotalCents,
		}
		return nil
	})

	if err != nil {
		return ValidateOutput{}, err
	}
	return out, nil
}
