package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/fjod/go_ussd/internal/input"
	"github.com/fjod/go_ussd/internal/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	noPhoneText   = "No phone number provided."
	badPhoneText  = "Phone must start with 233. Got: "
	throttledText = "Too many requests. Please try again shortly."
)

// Controller advances a session by one turn.
type Controller interface {
	Handle(ctx context.Context, s *domain.Session, t domain.Turn) domain.Reply
}

// Recorder keeps an audit copy of every message.
type Recorder interface {
	Record(entry domain.TurnLog)
}

// Limiter decides whether a subscriber may take another turn now.
type Limiter interface {
	Allow(key string) bool
}

type USSDRequestDTO struct {
	MSISDN   string `json:"MSISDN"`
	UserData string `json:"USERDATA"`
	UserID   string `json:"USERID"`
}

type USSDResponseDTO struct {
	UserID   string `json:"USERID"`
	MSISDN   string `json:"MSISDN"`
	Message  string `json:"MSG"`
	Continue bool   `json:"MSGTYPE"`
}

type TurnConfig struct {
	MaxMessageLength int
	// Timeout bounds the work of one turn.
	Timeout time.Duration
	// SaveTimeout bounds the session save, which runs even when the turn
	// used up its own deadline.
	SaveTimeout time.Duration
}

type TurnHandler struct {
	store      session.Store
	locker     session.Locker
	controller Controller
	audit      Recorder
	limiter    Limiter
	cfg        TurnConfig
	logger     zerolog.Logger
	now        func() time.Time
}

// NewTurnHandler builds the gateway callback handler. A nil limiter turns
// rate limiting off.
func NewTurnHandler(
	store session.Store,
	locker session.Locker,
	controller Controller,
	audit Recorder,
	limiter Limiter,
	cfg TurnConfig,
	logger zerolog.Logger,
) *TurnHandler {
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 5 * time.Second
	}
	return &TurnHandler{
		store:      store,
		locker:     locker,
		controller: controller,
		audit:      audit,
		limiter:    limiter,
		cfg:        cfg,
		logger:     logger.With().Str("component", "ussd").Logger(),
		now:        time.Now,
	}
}

// HandleTurn serves one gateway callback.
func (h *TurnHandler) HandleTurn(w http.ResponseWriter, r *http.Request) {
	var req USSDRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	userID := input.UserID(req.UserID)
	subscriber := input.NormalizeMSISDN(req.MSISDN)
	switch {
	case strings.TrimSpace(req.MSISDN) == "":
		h.respond(w, userID, req.MSISDN, domain.Reply{Text: noPhoneText})
		return
	case !input.ValidMSISDN(subscriber):
		h.logger.Warn().Str("msisdn", req.MSISDN).Msg("rejected invalid phone number")
		h.respond(w, userID, req.MSISDN, domain.Reply{Text: badPhoneText + req.MSISDN})
		return
	}

	if h.limiter != nil && !h.limiter.Allow(subscriber) {
		h.logger.Warn().Str("msisdn", subscriber).Msg("subscriber rate limited")
		h.respond(w, userID, subscriber, domain.Reply{Text: throttledText})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Timeout)
	defer cancel()

	turn := domain.Turn{
		Subscriber: subscriber,
		UserID:     userID,
		Input:      input.Sanitize(req.UserData),
	}
	reply, err := h.advance(ctx, turn)
	if err != nil {
		h.logger.Error().Err(err).
			Str("msisdn", subscriber).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("failed to process turn")
		respondError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	h.respond(w, userID, subscriber, reply)
}

// advance runs one turn under the subscriber lock and saves the session.
func (h *TurnHandler) advance(ctx context.Context, t domain.Turn) (domain.Reply, error) {
	unlock, err := h.locker.Lock(ctx, t.Subscriber)
	if err != nil {
		return domain.Reply{}, err
	}
	defer unlock()

	s, err := session.LoadOrCreate(ctx, h.store, t.Subscriber, h.now())
	if err != nil {
		return domain.Reply{}, err
	}

	h.audit.Record(domain.TurnLog{
		Subscriber: t.Subscriber,
		UserID:     t.UserID,
		Message:    t.Input,
		Continue:   true,
		State:      s.State,
		SessionID:  s.ID,
	})

	reply := h.controller.Handle(ctx, s, t)
	reply.Text = truncate(reply.Text, h.cfg.MaxMessageLength)

	// an emitted order is recorded on the session, so the save must not share
	// the deadline the collaborators may have used up
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.cfg.SaveTimeout)
	defer cancel()
	if err := h.store.Put(saveCtx, s); err != nil {
		h.logger.Error().Err(err).Str("msisdn", t.Subscriber).Str("session_id", s.ID).Msg("failed to save session")
	}

	h.audit.Record(domain.TurnLog{
		Subscriber: t.Subscriber,
		UserID:     t.UserID,
		Message:    reply.Text,
		Continue:   reply.Continue,
		State:      s.State,
		SessionID:  s.ID,
	})

	h.logger.Debug().
		Str("msisdn", t.Subscriber).
		Str("state", s.State.String()).
		Bool("continue", reply.Continue).
		Msg("turn handled")
	return reply, nil
}

func (h *TurnHandler) respond(w http.ResponseWriter, userID, msisdn string, reply domain.Reply) {
	respondJSON(w, http.StatusOK, USSDResponseDTO{
		UserID:   userID,
		MSISDN:   msisdn,
		Message:  truncate(reply.Text, h.cfg.MaxMessageLength),
		Continue: reply.Continue,
	})
}

func truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
