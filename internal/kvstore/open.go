package kvstore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open builds the store named by backend. The returned close func releases
// any underlying connection and is never nil.
func Open(ctx context.Context, backend, databaseURL, redisURL string) (Store, func() error, error) {
	noop := func() error { return nil }
	switch backend {
	case "", "memory":
		return NewInMemoryRepository(nil), noop, nil
	case "postgres":
		if databaseURL == "" {
			return nil, noop, fmt.Errorf("kvstore: DATABASE_URL is not set")
		}
		db, err := sql.Open("pgx", databaseURL)
		if err != nil {
			return nil, noop, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		repo := NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return repo, db.Close, nil
	case "redis":
		client, err := OpenRedis(ctx, redisURL)
		if err != nil {
			return nil, noop, err
		}
		return NewRedisRepository(client, "prasad"), client.Close, nil
	default:
		return nil, noop, fmt.Errorf("kvstore: unknown backend %q", backend)
	}
}
