package audit

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/go_ussd/internal/domain"
	"github.com/rs/zerolog"
)

// Sink persists audit entries.
type Sink interface {
	StoreTurnLog(ctx context.Context, entry domain.TurnLog) error
}

// TurnLogger writes audit entries off the request path. Entries are queued
// and stored by one worker; a full queue drops the entry.
type TurnLogger struct {
	sink    Sink
	timeout time.Duration
	logger  zerolog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan domain.TurnLog
	done   chan struct{}
}

func NewTurnLogger(sink Sink, size int, timeout time.Duration, logger zerolog.Logger) *TurnLogger {
	if size <= 0 {
		size = 1024
	}
	l := &TurnLogger{
		sink:    sink,
		timeout: timeout,
		logger:  logger.With().Str("component", "audit").Logger(),
		queue:   make(chan domain.TurnLog, size),
		done:    make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *TurnLogger) run() {
	defer close(l.done)
	for entry := range l.queue {
		l.store(entry)
	}
}

func (l *TurnLogger) store(entry domain.TurnLog) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if err := l.sink.StoreTurnLog(ctx, entry); err != nil {
		l.logger.Error().Err(err).Str("msisdn", entry.Subscriber).Msg("failed to store turn log")
	}
}

// Record enqueues an entry without blocking.
func (l *TurnLogger) Record(entry domain.TurnLog) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}

	select {
	case l.queue <- entry:
	default:
		l.logger.Warn().Str("msisdn", entry.Subscriber).Msg("audit queue full, entry dropped")
	}
}

// Close stops accepting entries and waits for the queue to drain.
func (l *TurnLogger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
