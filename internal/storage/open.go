package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Driver        string
	Session       string
	RedisAddr     string
	RedisPassword string
	SQLitePath    string
	PostgresDSN   string
	MongoURI      string
	MongoDBName   string
}

// Open connects the configured backend. The returned close function
// releases its connections.
func Open(ctx context.Context, cfg Config) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryStorage(), noop, nil

	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, noop, fmt.Errorf("redis connection failed: %w", err)
		}
		return NewRedisStorage(client, cfg.Session), client.Close, nil

	case DriverSQLite:
		s, err := OpenSQL(ctx, DialectSQLite, cfg.SQLitePath, cfg.Session)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case DriverPostgres:
		s, err := OpenSQL(ctx, DialectPostgres, cfg.PostgresDSN, cfg.Session)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case DriverMongo:
		db, err := ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, noop, err
		}
		s := NewMongoStorage(db, cfg.Session)
		if err := s.CreateIndexes(ctx); err != nil {
			db.Client().Disconnect(ctx)
			return nil, noop, err
		}
		return s, func() error { return db.Client().Disconnect(context.Background()) }, nil

	default:
		return nil, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
