package bridgestore

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Locker serializes work across processes sharing the database using
// session-level advisory locks. Each held lock pins one pooled connection.
type Locker struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewLocker creates a Locker over db.
func NewLocker(db *bun.DB, logger *zap.Logger) *Locker {
	return &Locker{db: db, logger: logger}
}

// lockID maps key onto the bigint advisory lock space.
func lockID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64()) // #nosec G115 -- wraparound is fine for a lock id
}

// TryLock attempts to take key without waiting. When ok is true the caller
// must call release exactly once.
func (l *Locker) TryLock(ctx context.Context, key string) (release func(), ok bool, err error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get lock connection: %w", err)
	}

	id := lockID(key)
	var acquired bool
	if err := conn.NewSelect().ColumnExpr("pg_try_advisory_lock(?)", id).Scan(ctx, &acquired); err != nil {
		_ = conn.Close()
		return nil, false, fmt.Errorf("failed to acquire advisory lock %q: %w", key, err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, false, nil
	}

	release = func() {
		// The caller's context may already be cancelled; the unlock must still run.
		if _, err := conn.ExecContext(context.Background(), "SELECT pg_advisory_unlock(?)", id); err != nil {
			l.logger.Error("Failed to release advisory lock", zap.String("key", key), zap.Error(err))
		}
		_ = conn.Close()
	}
	return release, true, nil
}
