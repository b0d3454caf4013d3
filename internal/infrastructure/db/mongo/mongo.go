package mongo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// defaultTimeout bounds connection setup and every repository call.
const defaultTimeout = 10 * time.Second

// Config selects the deployment and the database holding the credential
// collections.
type Config struct {
	URI      string
	Database string
	AppName  string        // reported to the server, clinic-api when empty
	Timeout  time.Duration // connect and ping budget
}

// Connect dials the deployment, waits for the primary to answer and returns
// the client with its database handle. The caller owns client.Disconnect.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Database == "" {
		return nil, nil, errors.New("mongo: database name is required")
	}
	timeout := cmp.Or(cfg.Timeout, defaultTimeout)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetAppName(cmp.Or(cfg.AppName, "clinic-api")).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, nil, fmt.Errorf("mongo: ping primary: %w", err)
	}
	return client, client.Database(cfg.Database), nil
}
