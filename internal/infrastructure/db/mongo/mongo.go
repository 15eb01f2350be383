package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultAppName        = "rbac-accounts"
	defaultConnectTimeout = 10 * time.Second
)

// Config describes the account store's MongoDB deployment.
type Config struct {
	URI      string
	Database string
	// AppName shows up in server logs and currentOp output.
	AppName string
	// ConnectTimeout bounds both the initial connect and the startup ping.
	ConnectTimeout time.Duration
	// ServerSelectionTimeout bounds every later operation's wait for a primary.
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
}

func clientOptions(cfg Config) *options.ClientOptions {
	appName := cfg.AppName
	if appName == "" {
		appName = defaultAppName
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetConnectTimeout(connectTimeout(cfg))
	if cfg.ServerSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(cfg.ServerSelectionTimeout)
	}
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	return opts
}

func connectTimeout(cfg Config) time.Duration {
	if cfg.ConnectTimeout > 0 {
		return cfg.ConnectTimeout
	}
	return defaultConnectTimeout
}

// Connect opens the client, waits for a primary and returns the account database.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	if cfg.Database == "" {
		return nil, nil, fmt.Errorf("mongo: database name is required")
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout(cfg))
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	// Update relies on single-document atomicity, which only the primary guarantees.
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping %s: %w", cfg.Database, err)
	}

	return client, client.Database(cfg.Database), nil
}

// Disconnect closes client, giving in-flight operations up to timeout.
func Disconnect(client *mongo.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return client.Disconnect(ctx)
}
