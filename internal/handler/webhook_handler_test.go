package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testWebhookSecret = "whsec_test"

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h *WebhookHandler, body string, signature string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(webhookSignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = h.receive(c)
	return rec
}

func TestWebhookReceive_RejectsMissingSignature(t *testing.T) {
	h := NewWebhookHandler(nil, testWebhookSecret)

	rec := postWebhook(h, `{"event_id":"evt_1"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid signature")
}

func TestWebhookReceive_RejectsWrongSignature(t *testing.T) {
	h := NewWebhookHandler(nil, testWebhookSecret)
	body := `{"event_id":"evt_1","payment_intent_id":"pi_1","status":"succeeded"}`

	// 別のシークレットで作った署名
	rec := postWebhook(h, body, sign("whsec_other", body))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookReceive_RejectsTamperedBody(t *testing.T) {
	h := NewWebhookHandler(nil, testWebhookSecret)
	original := `{"event_id":"evt_1","payment_intent_id":"pi_1","status":"succeeded"}`
	tampered := `{"event_id":"evt_1","payment_intent_id":"pi_1","status":"failed"}`

	rec := postWebhook(h, tampered, sign(testWebhookSecret, original))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookReceive_RejectsNonHexSignature(t *testing.T) {
	h := NewWebhookHandler(nil, testWebhookSecret)

	rec := postWebhook(h, `{}`, "not-hex!!")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWebhookReceive_RejectsMalformedJSON(t *testing.T) {
	h := NewWebhookHandler(nil, testWebhookSecret)
	body := `{not json`

	// 署名は正しいがbodyがJSONとして壊れている
	rec := postWebhook(h, body, sign(testWebhookSecret, body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid body")
}

func TestVerifySignature(t *testing.T) {
	h := NewWebhookHandler(nil, testWebhookSecret)
	body := []byte(`{"event_id":"evt_1"}`)

	assert.True(t, h.verifySignature(body, sign(testWebhookSecret, string(body))))
	assert.False(t, h.verifySignature(body, sign("whsec_other", string(body))))
	assert.False(t, h.verifySignature(body, ""))
}
