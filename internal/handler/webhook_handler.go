package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

const webhookSignatureHeader = "Webhook-Signature"

// 決済プロバイダからのWebhook受け口。
// 署名検証→形式チェック→usecase（台帳で冪等）の順。
// 署名不正と形式不正は台帳に書かない（直した再配送を受けられるように）。
type WebhookHandler struct {
	uc     *usecase.WebhookUsecase
	secret []byte
}

func NewWebhookHandler(uc *usecase.WebhookUsecase, secret string) *WebhookHandler {
	return &WebhookHandler{uc: uc, secret: []byte(secret)}
}

type WebhookRequest struct {
	EventID         string `json:"event_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Status          string `json:"status"`
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/payment", h.receive)
}

func (h *WebhookHandler) receive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, 1<<20))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//署名は生のbodyに対して検証する（パースより先）
	if !h.verifySignature(body, c.Request().Header.Get(webhookSignatureHeader)) {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid signature"})
	}

	var req WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	err = h.uc.Process(c.Request().Context(), usecase.WebhookInput{
		EventID:     req.EventID,
		ProviderRef: req.PaymentIntentID,
		Outcome:     req.Status,
	})
	if err != nil {
		return writeError(c, err)
	}

	//新規でも重複でも、記録できたら200（プロバイダの再送を止める）
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// HMAC-SHA256（hex）を定数時間で比較する
func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if signature == "" {
		return false
	}

	sig, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	return hmac.Equal(sig, mac.Sum(nil))
}
