package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrRejected = errors.New("payment rejected")

type Status string

const (
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type PushRequest struct {
	Subscriber string
	Amount     decimal.Decimal
	Provider   Provider
	// Reference is the order id the payment settles.
	Reference string
}

// Result is the gateway answer to a push payment.
type Result struct {
	Status        Status
	TransactionID string
	DisplayText   string
	Reason        string
}

type Payments interface {
	InitiatePushPayment(ctx context.Context, req PushRequest) (Result, error)
}

type Config struct {
	URL         string
	APIKey      string
	MaxAttempts uint
}

func (c Config) Enabled() bool {
	return c.URL != "" && c.APIKey != ""
}

type pushBody struct {
	MSISDN    string          `json:"msisdn"`
	Amount    decimal.Decimal `json:"amount"`
	Provider  Provider        `json:"provider,omitempty"`
	Reference string          `json:"reference"`
	Currency  string          `json:"currency"`
}

type pushResponse struct {
	Status        Status `json:"status"`
	TransactionID string `json:"transaction_id"`
	DisplayText   string `json:"display_text"`
	Reason        string `json:"reason"`
}

// Client talks to the push payment gateway over JSON.
type Client struct {
	cfg        Config
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	logger     zerolog.Logger
}

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   20 * time.Second,
		},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 300 * time.Millisecond
			return b
		},
		logger: logger.With().Str("component", "payment").Logger(),
	}
}

// InitiatePushPayment asks the gateway to prompt the subscriber for payment.
// A rejection is returned as ErrRejected together with the gateway reason.
func (c *Client) InitiatePushPayment(ctx context.Context, req PushRequest) (Result, error) {
	payload, err := json.Marshal(pushBody{
		MSISDN:    req.Subscriber,
		Amount:    req.Amount,
		Provider:  req.Provider,
		Reference: req.Reference,
		Currency:  "GHS",
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal push payment: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.URL, "/") + "/payments/push"

	attempt := 0
	op := func() (Result, error) {
		attempt++
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return Result{}, backoff.Permanent(fmt.Errorf("build payment request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		httpReq.Header.Set("Idempotency-Key", uuid.NewString())

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt).Str("reference", req.Reference).Msg("payment request failed")
			return Result{}, fmt.Errorf("payment request: %w", err)
		}
		defer resp.Body.Close()

		return c.decode(resp, attempt)
	}

	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.cfg.MaxAttempts),
	)
	if err != nil {
		return result, err
	}

	c.logger.Info().
		Str("reference", req.Reference).
		Str("transaction_id", result.TransactionID).
		Msg("push payment accepted")
	return result, nil
}

func (c *Client) decode(resp *http.Response, attempt int) (Result, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return Result{}, fmt.Errorf("read payment response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusConflict,
		resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode >= http.StatusInternalServerError:
		c.logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("payment gateway asked for retry")
		return Result{}, fmt.Errorf("payment gateway status %d", resp.StatusCode)
	}

	var decoded pushResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Result{}, backoff.Permanent(fmt.Errorf("decode payment response (status %d): %w", resp.StatusCode, err))
	}

	result := Result{
		Status:        decoded.Status,
		TransactionID: decoded.TransactionID,
		DisplayText:   decoded.DisplayText,
		Reason:        decoded.Reason,
	}

	if decoded.Status == StatusRejected {
		if result.Reason == "" {
			result.Reason = "declined"
		}
		return result, backoff.Permanent(fmt.Errorf("%w: %s", ErrRejected, result.Reason))
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return result, backoff.Permanent(fmt.Errorf("payment gateway status %d", resp.StatusCode))
	}
	if decoded.Status != StatusAccepted {
		return result, backoff.Permanent(fmt.Errorf("unknown payment status %q", decoded.Status))
	}
	return result, nil
}
