package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const subscriber = "233241234567"

type fixture struct {
	handler    *TurnHandler
	store      *MockStore
	locker     *MockLocker
	controller *MockController
	audit      *MockRecorder
}

func newFixture(reply domain.Reply) *fixture {
	f := &fixture{
		store:      &MockStore{},
		locker:     &MockLocker{},
		controller: &MockController{Reply: reply},
		audit:      &MockRecorder{},
	}
	f.handler = NewTurnHandler(f.store, f.locker, f.controller, f.audit, nil, TurnConfig{
		MaxMessageLength: 160,
		Timeout:          time.Second,
	}, zerolog.Nop())
	return f
}

func postTurn(t *testing.T, h http.HandlerFunc, body string) (*httptest.ResponseRecorder, USSDResponseDTO) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h(rec, req)

	var resp USSDResponseDTO
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHandleTurn_Success(t *testing.T) {
	f := newFixture(domain.Reply{Text: "Select Vendor:", Continue: true})
	f.controller.NextState = domain.StateCategory

	rec, resp := postTurn(t, f.handler.HandleTurn, `{"MSISDN":"+233 24 123 4567","USERDATA":" 1<b> ","USERID":"GW1"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, USSDResponseDTO{UserID: "GW1", MSISDN: subscriber, Message: "Select Vendor:", Continue: true}, resp)

	require.Len(t, f.controller.Turns, 1)
	assert.Equal(t, domain.Turn{Subscriber: subscriber, UserID: "GW1", Input: "1b"}, f.controller.Turns[0])

	saved := f.store.Sessions[subscriber]
	require.NotNil(t, saved)
	assert.Equal(t, domain.StateCategory, saved.State)
	assert.Equal(t, 1, f.locker.Locked)
	assert.Equal(t, 1, f.locker.Unlocked)
}

func TestHandleTurn_AuditsBothDirections(t *testing.T) {
	f := newFixture(domain.Reply{Text: "Bye", Continue: false})

	postTurn(t, f.handler.HandleTurn, `{"MSISDN":"233241234567","USERDATA":"0"}`)

	require.Len(t, f.audit.Entries, 2)
	in, out := f.audit.Entries[0], f.audit.Entries[1]
	assert.Equal(t, "0", in.Message)
	assert.True(t, in.Continue)
	assert.Equal(t, domain.StateMainMenu, in.State)
	assert.Equal(t, "NALOTest", in.UserID)
	assert.Equal(t, "Bye", out.Message)
	assert.False(t, out.Continue)
	assert.Equal(t, in.SessionID, out.SessionID)
	assert.NotEmpty(t, in.SessionID)
}

func TestHandleTurn_ReusesStoredSession(t *testing.T) {
	f := newFixture(domain.Reply{Text: "ok", Continue: true})
	existing := domain.NewSession(subscriber, "sess-1", time.Now())
	existing.State = domain.StateCart
	f.store.Sessions = map[string]*domain.Session{subscriber: existing}

	postTurn(t, f.handler.HandleTurn, `{"MSISDN":"233241234567","USERDATA":"2"}`)

	require.Len(t, f.audit.Entries, 2)
	assert.Equal(t, "sess-1", f.audit.Entries[0].SessionID)
	assert.Equal(t, domain.StateCart, f.audit.Entries[0].State)
}

func TestHandleTurn_TruncatesMessage(t *testing.T) {
	f := newFixture(domain.Reply{Text: strings.Repeat("é", 200), Continue: true})

	_, resp := postTurn(t, f.handler.HandleTurn, `{"MSISDN":"233241234567","USERDATA":""}`)

	assert.Equal(t, 160, len([]rune(resp.Message)))
	require.Len(t, f.audit.Entries, 2)
	assert.Equal(t, resp.Message, f.audit.Entries[1].Message)
}

func TestHandleTurn_InvalidBody(t *testing.T) {
	f := newFixture(domain.Reply{})

	rec, _ := postTurn(t, f.handler.HandleTurn, `{"MSISDN":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request"}`, rec.Body.String())
	assert.Empty(t, f.controller.Turns)
}

func TestHandleTurn_PhoneValidation(t *testing.T) {
	tests := []struct {
		name   string
		msisdn string
		text   string
	}{
		{"missing", "", "No phone number provided."},
		{"blank", "   ", "No phone number provided."},
		{"letters only", "abc", "Phone must start with 233. Got: abc"},
		{"local format", "0241234567", "Phone must start with 233. Got: 0241234567"},
		{"bad network digit", "233141234567", "Phone must start with 233. Got: 233141234567"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(domain.Reply{Text: "unused", Continue: true})
			body, _ := json.Marshal(USSDRequestDTO{MSISDN: tt.msisdn, UserData: "1"})

			rec, resp := postTurn(t, f.handler.HandleTurn, string(body))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.text, resp.Message)
			assert.False(t, resp.Continue)
			assert.Equal(t, tt.msisdn, resp.MSISDN)
			assert.Empty(t, f.controller.Turns)
			assert.Zero(t, f.locker.Locked)
		})
	}
}

func TestHandleTurn_LockFailure(t *testing.T) {
	f := newFixture(domain.Reply{Text: "unused"})
	f.locker.Err = errors.New("lock timeout")

	rec, _ := postTurn(t, f.handler.HandleTurn, `{"MSISDN":"233241234567","USERDATA":"1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal error"}`, rec.Body.String())
	assert.Empty(t, f.controller.Turns)
}

func TestHandleTurn_LoadFailure(t *testing.T) {
	f := newFixture(domain.Reply{Text: "unused"})
	f.store.GetErr = errors.New("redis down")

	rec, _ := postTurn(t, f.handler.HandleTurn, `{"MSISDN":"233241234567","USERDATA":"1"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, f.locker.Unlocked)
}

func TestHandleTurn_SaveFailureStillReplies(t *testing.T) {
	f := newFixture(domain.Reply{Text: "Order #ABCD1234 created!", Continue: false})
	f.store.PutErr = errors.New("redis down")

	rec, resp := postTurn(t, f.handler.HandleTurn, `{"MSISDN":"233241234567","USERDATA":"0"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Order #ABCD1234 created!", resp.Message)
	assert.Equal(t, 1, f.store.Puts)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 160))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "abc", truncate("abc", 0))
}
