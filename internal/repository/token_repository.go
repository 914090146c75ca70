package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// RevocationRepo keeps revoked refresh-token ids in `revoked_tokens`.
type RevocationRepo struct {
	DB  *sqlx.DB
	Now func() time.Time
}

func NewRevocationRepo(db *sqlx.DB) *RevocationRepo {
	return &RevocationRepo{DB: db, Now: time.Now}
}

// Revoke records jti. Recording the same jti twice is not an error.
func (r *RevocationRepo) Revoke(ctx context.Context, jti, subject string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO revoked_tokens (jti, subject, expires_at, revoked_at) VALUES (?,?,?,?)",
		jti, subject, expiresAt.UTC().Truncate(time.Microsecond), r.Now().UTC().Truncate(time.Microsecond))
	if isDuplicate(err) {
		return nil
	}
	return err
}

// IsRevoked reports whether jti was revoked.
func (r *RevocationRepo) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?", jti); err != nil {
		return false, err
	}
	return n > 0, nil
}

// PurgeExpired drops entries whose token expired before cutoff. Such tokens
// fail verification on their own, so the rows are no longer needed.
func (r *RevocationRepo) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM revoked_tokens WHERE expires_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RedisRevocations keeps the revocation set in Redis. Each key expires with
// the token it revokes.
type RedisRevocations struct {
	RDB    *redis.Client
	Prefix string
	Now    func() time.Time
}

func NewRedisRevocations(rdb *redis.Client, prefix string) *RedisRevocations {
	if prefix == "" {
		prefix = "revoked"
	}
	return &RedisRevocations{RDB: rdb, Prefix: prefix, Now: time.Now}
}

func (r *RedisRevocations) key(jti string) string { return r.Prefix + ":" + jti }

func (r *RedisRevocations) Revoke(ctx context.Context, jti, subject string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.Now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return r.RDB.Set(ctx, r.key(jti), subject, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.RDB.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
