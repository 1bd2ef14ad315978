package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const (
	mongoAppName     = "ussd-service"
	mongoPingTimeout = 5 * time.Second
)

// turnLogClientOptions sizes the client for the audit writer: a handful of
// workers doing single inserts that may be lost but must not block turns.
func turnLogClientOptions(uri string) *options.ClientOptions {
	return options.Client().
		ApplyURI(uri).
		SetAppName(mongoAppName).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(3 * time.Second).
		SetMaxPoolSize(16).
		SetMaxConnIdleTime(2 * time.Minute).
		SetRetryWrites(true).
		SetWriteConcern(writeconcern.W1())
}

// ConnectMongoDB opens the turn log database and checks the primary answers.
// The client is disconnected again when it does not.
func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	if uri == "" || database == "" {
		return nil, errors.New("mongo uri and database are required")
	}

	client, err := mongo.Connect(ctx, turnLogClientOptions(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}
