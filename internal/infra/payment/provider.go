package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// プロバイダ側のintent。client_secretはそのままクライアントへ返す。
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Provider は決済プロバイダとの境界。
type Provider interface {
	CreateIntent(ctx context.Context, orderID int64, amountCents int64, currency string) (Intent, error)
}

// 障害の分類。リトライするかどうかはここで決める。
type ErrorClass int

const (
	ClassNetwork ErrorClass = iota
	ClassTimeout
	ClassRateLimit
	ClassServer
	ClassAuth
	ClassClient
)

type ProviderError struct {
	Class  ErrorClass
	Status int
	Msg    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: %s (status=%d)", e.Msg, e.Status)
}

// Retryable はネットワーク・タイムアウト・レート制限・5xxだけtrue。
// 認証エラーや不正リクエストを何回投げても直らない。
func (e *ProviderError) Retryable() bool {
	switch e.Class {
	case ClassNetwork, ClassTimeout, ClassRateLimit, ClassServer:
		return true
	}
	return false
}

func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	ok := errors.As(err, &pe)
	return pe, ok
}

// ErrCircuitOpen はブレーカーが開いている間の即時失敗。
var ErrCircuitOpen = gobreaker.ErrOpenState

// Client はHTTPのプロバイダ実装。
// ブレーカーはこのインスタンスが持つ（プロセス全体のシングルトンにしない）。
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker[Intent]
	logger      zerolog.Logger
	maxAttempts int
	backoffBase time.Duration
}

func NewClient(baseURL string, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	settings := gobreaker.Settings{
		Name:    "payment-provider",
		Timeout: 30 * time.Second, // open→half-openまでのクールダウン
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		breaker:     gobreaker.NewCircuitBreaker[Intent](settings),
		logger:      logger,
		maxAttempts: 3,
		backoffBase: 100 * time.Millisecond,
	}
}

// CreateIntent はintentを作る。リトライ可能な失敗は
// ジッタ付き指数バックオフで数回だけやり直す。ブレーカーが開いていれば即失敗。
func (c *Client) CreateIntent(ctx context.Context, orderID int64, amountCents int64, currency string) (Intent, error) {
	return c.breaker.Execute(func() (Intent, error) {
		var lastErr error

		for attempt := 0; attempt < c.maxAttempts; attempt++ {
			if attempt > 0 {
				select {
				case <-ctx.Done():
					return Intent{}, &ProviderError{Class: ClassTimeout, Msg: ctx.Err().Error()}
				case <-time.After(c.backoff(attempt)):
				}
			}

			intent, err := c.doCreateIntent(ctx, orderID, amountCents, currency)
			if err == nil {
				return intent, nil
			}
			lastErr = err

			pe, ok := AsProviderError(err)
			if !ok || !pe.Retryable() {
				return Intent{}, err
			}

			c.logger.Warn().Err(err).Int("attempt", attempt+1).Int64("order_id", orderID).Msg("provider call retrying")
		}

		return Intent{}, lastErr
	})
}

func (c *Client) doCreateIntent(ctx context.Context, orderID int64, amountCents int64, currency string) (Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountCents, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("metadata[order_id]", strconv.FormatInt(orderID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return Intent{}, &ProviderError{Class: ClassClient, Msg: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	//プロバイダ側の冪等性キー。同じ注文で二重にintentを作らせない。
	req.Header.Set("Idempotency-Key", "order-"+strconv.FormatInt(orderID, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return Intent{}, &ProviderError{Class: ClassTimeout, Msg: err.Error()}
		}
		return Intent{}, &ProviderError{Class: ClassNetwork, Msg: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Intent{}, &ProviderError{Class: ClassNetwork, Msg: err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var intent Intent
		if err := json.Unmarshal(body, &intent); err != nil || intent.ID == "" {
			return Intent{}, &ProviderError{Class: ClassServer, Status: resp.StatusCode, Msg: "malformed provider response"}
		}
		return intent, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return Intent{}, &ProviderError{Class: ClassAuth, Status: resp.StatusCode, Msg: "authentication failed"}

	case resp.StatusCode == http.StatusTooManyRequests:
		return Intent{}, &ProviderError{Class: ClassRateLimit, Status: resp.StatusCode, Msg: "rate limited"}

	case resp.StatusCode >= 500:
		return Intent{}, &ProviderError{Class: ClassServer, Status: resp.StatusCode, Msg: "server error"}

	default:
		return Intent{}, &ProviderError{Class: ClassClient, Status: resp.StatusCode, Msg: strings.TrimSpace(string(body))}
	}
}

// ジッタ付き指数バックオフ
func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(c.backoffBase)))
	return d + jitter
}
