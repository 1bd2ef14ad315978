package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultURL = "http://clientlogin.bulksmsgh.com/smsapi"
	// codeSent is the gateway body for an accepted message.
	codeSent = "1000"
)

var ErrNotSent = errors.New("sms not accepted by gateway")

// Delivery is the gateway outcome of one message.
type Delivery struct {
	Sent bool
	Code string
}

type Notifier interface {
	SendMessage(ctx context.Context, to, text string) (Delivery, error)
}

type Config struct {
	APIKey      string
	SenderID    string
	URL         string
	MaxAttempts uint
}

// Enabled reports whether the gateway has credentials.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}

// BulkSMS sends messages through the Bulk SMS Ghana HTTP API.
type BulkSMS struct {
	cfg        Config
	httpClient *http.Client
	newBackOff func() backoff.BackOff
	logger     zerolog.Logger
}

func NewBulkSMS(cfg Config, logger zerolog.Logger) *BulkSMS {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}
	return &BulkSMS{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   10 * time.Second,
		},
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			return b
		},
		logger: logger.With().Str("component", "sms").Logger(),
	}
}

// SendMessage retries transport failures and 5xx answers. A gateway code
// other than success is final.
func (s *BulkSMS) SendMessage(ctx context.Context, to, text string) (Delivery, error) {
	params := url.Values{}
	params.Set("key", s.cfg.APIKey)
	params.Set("to", to)
	params.Set("msg", text)
	params.Set("sender_id", s.cfg.SenderID)
	target := s.cfg.URL + "?" + params.Encode()

	attempt := 0
	op := func() (Delivery, error) {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return Delivery{}, backoff.Permanent(fmt.Errorf("build sms request: %w", err))
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			s.logger.Warn().Err(err).Int("attempt", attempt).Msg("sms request failed")
			return Delivery{}, fmt.Errorf("sms request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if err != nil {
			return Delivery{}, fmt.Errorf("read sms response: %w", err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			s.logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt).Msg("sms gateway unavailable")
			return Delivery{}, fmt.Errorf("sms gateway status %d", resp.StatusCode)
		}

		code := strings.TrimSpace(string(body))
		if code != codeSent {
			return Delivery{Code: code}, backoff.Permanent(fmt.Errorf("%w: code %q", ErrNotSent, code))
		}
		return Delivery{Sent: true, Code: code}, nil
	}

	delivery, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.cfg.MaxAttempts),
	)
	if err != nil {
		return delivery, err
	}

	s.logger.Info().Str("to", to).Str("code", delivery.Code).Msg("sms sent")
	return delivery, nil
}

// Noop is used when the gateway has no credentials.
type Noop struct {
	logger zerolog.Logger
}

func NewNoop(logger zerolog.Logger) *Noop {
	return &Noop{logger: logger}
}

func (n *Noop) SendMessage(_ context.Context, to, _ string) (Delivery, error) {
	n.logger.Debug().Str("to", to).Msg("sms disabled, message dropped")
	return Delivery{}, nil
}
