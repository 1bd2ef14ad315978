package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/go_ussd/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultTurnLogCollection = "ussd_responses"

// turnLogDocument keeps the field names downstream dashboards already read.
type turnLogDocument struct {
	MSISDN          string    `bson:"MSISDN"`
	UserID          string    `bson:"USERID"`
	Message         string    `bson:"M1"`
	ContinueSession bool      `bson:"ContinueSession"`
	State           string    `bson:"State,omitempty"`
	SessionID       string    `bson:"SessionID,omitempty"`
	Timestamp       time.Time `bson:"Timestamp"`
}

func toTurnLogDocument(entry domain.TurnLog) turnLogDocument {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return turnLogDocument{
		MSISDN:          entry.Subscriber,
		UserID:          entry.UserID,
		Message:         entry.Message,
		ContinueSession: entry.Continue,
		State:           string(entry.State),
		SessionID:       entry.SessionID,
		Timestamp:       ts.UTC(),
	}
}

type mongoTurnLogRepository struct {
	collection *mongo.Collection
}

func NewMongoTurnLogRepository(db *mongo.Database, collection string) TurnLogRepository {
	if collection == "" {
		collection = DefaultTurnLogCollection
	}
	return &mongoTurnLogRepository{collection: db.Collection(collection)}
}

func (m *mongoTurnLogRepository) StoreTurnLog(ctx context.Context, entry domain.TurnLog) error {
	if _, err := m.collection.InsertOne(ctx, toTurnLogDocument(entry)); err != nil {
		return fmt.Errorf("failed to insert turn log: %w", err)
	}
	return nil
}

// CreateIndexes supports lookups of a subscriber's recent turns.
func (m *mongoTurnLogRepository) CreateIndexes(ctx context.Context) error {
	_, err := m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "MSISDN", Value: 1}, {Key: "Timestamp", Value: -1}},
		Options: options.Index().SetName("msisdn_timestamp"),
	})
	if err != nil {
		return fmt.Errorf("failed to create turn log index: %w", err)
	}
	return nil
}

// RecentTurns returns the latest entries of a subscriber, newest first.
func (m *mongoTurnLogRepository) RecentTurns(ctx context.Context, msisdn string, limit int64) ([]domain.TurnLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "Timestamp", Value: -1}}).SetLimit(limit)
	cursor, err := m.collection.Find(ctx, bson.M{"MSISDN": msisdn}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find turn logs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []turnLogDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode turn logs: %w", err)
	}

	out := make([]domain.TurnLog, 0, len(docs))
	for _, d := range docs {
		out = append(out, domain.TurnLog{
			Subscriber: d.MSISDN,
			UserID:     d.UserID,
			Message:    d.Message,
			Continue:   d.ContinueSession,
			State:      domain.State(d.State),
			SessionID:  d.SessionID,
			Timestamp:  d.Timestamp,
		})
	}
	return out, nil
}

func (m *mongoTurnLogRepository) Close(ctx context.Context) error {
	return m.collection.Database().Client().Disconnect(ctx)
}
