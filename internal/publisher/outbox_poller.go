package publisher

import (
	"context"
	"time"

	r "github.com/fjod/go_ussd/internal/repository"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic     = "ussd-orders"
	DefaultBatchSize = 100
)

// EventSource is the part of the order repository the poller reads from.
type EventSource interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*r.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// OutboxPoller publishes order.created events written alongside orders.
type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	batchSize int
	repo      EventSource
	writer    MessageWriter
	logger    zerolog.Logger
}

func NewOutboxPoller(repo EventSource, topic string, logger zerolog.Logger, brokers ...string) *OutboxPoller {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, w, logger)
}

func newOutboxPoller(repo EventSource, w MessageWriter, logger zerolog.Logger) *OutboxPoller {
	return &OutboxPoller{
		timeout:   5 * time.Second,
		eventTick: time.Second,
		batchSize: DefaultBatchSize,
		repo:      repo,
		writer:    w,
		logger:    logger.With().Str("component", "outbox").Logger(),
	}
}

// Run polls until ctx is cancelled, then closes the writer.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	defer func() {
		if err := p.writer.Close(); err != nil {
			p.logger.Error().Err(err).Msg("failed to close kafka writer")
		}
	}()

	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// processUnpublishedEvents returns how many events were published and marked.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	events, err := p.repo.GetUnprocessedEvents(ctx, p.batchSize)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to fetch outbox events")
		return 0
	}

	published := 0
	for _, event := range events {
		if err := p.publish(ctx, event); err != nil {
			p.logger.Error().Err(err).Int64("event_id", event.ID).Msg("failed to publish event")
			continue
		}

		if err := p.repo.MarkEventAsProcessed(ctx, event.ID); err != nil {
			// the event is published again on the next tick
			p.logger.Error().Err(err).Int64("event_id", event.ID).Msg("failed to mark event as processed")
			continue
		}
		published++
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, event *r.OutboxEvent) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateId),
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
