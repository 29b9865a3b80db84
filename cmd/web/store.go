package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yanizio/formaction/internal/config"
	"github.com/yanizio/formaction/internal/database"
	"github.com/yanizio/formaction/internal/metrics"
	"github.com/yanizio/formaction/internal/user"
)

// openStore returns the configured user store, instrumented with error
// metrics, and a func releasing its connections.
func openStore(ctx context.Context, c config.Store, lg *zap.Logger) (user.Store, func(), error) {
	var (
		s       user.Store
		closeFn = func() {}
	)

	switch c.Driver {
	case "memory":
		s = user.NewMemoryStore(c.MaxDelay)

	case database.MySQL, database.Postgres:
		db, err := database.Open(ctx, c.Driver, c.DSN)
		if err != nil {
			return nil, nil, err
		}
		sqlStore := user.NewSQLStore(db)
		if c.Migrate {
			if err := sqlStore.Migrate(ctx); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
		}
		s = sqlStore
		closeFn = func() { db.Close() }

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		s = user.NewRedisStore(rdb, c.RedisPrefix)
		closeFn = func() { rdb.Close() }

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", c.Driver)
	}

	lg.Info("user store online", zap.String("driver", c.Driver))
	return user.Instrument(s, metrics.StoreErrorHook(c.Driver)), closeFn, nil
}
