package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rdacruz/maintdash/internal/client/models"
	"github.com/rdacruz/maintdash/internal/dbx"
)

// Persisted keys. All values are strings: the raw token, the
// JSON-serialized profile, and ISO-8601 timestamps.
const (
	keyToken       = "access_token"
	keyUserProfile = "user_profile"
	keyExpiresAt   = "expires_at"
	keyRetainUntil = "retain_until"
)

// SQLiteRepository stores the credential entry as key/value rows in a local
// SQLite database.
type SQLiteRepository struct {
	db  *sql.DB
	clk clock.Clock
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, clk: clock.New()}
}

// WithClock replaces the clock used for retention decisions (tests).
func (r *SQLiteRepository) WithClock(clk clock.Clock) *SQLiteRepository {
	r.clk = clk
	return r
}

func (r *SQLiteRepository) get(ctx context.Context, q dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := q.QueryRowContext(ctx, `SELECT value FROM credentials WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteRepository) set(ctx context.Context, q dbx.DBTX, key string, value []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO credentials (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set credentials[%s]: %w", key, err)
	}
	return nil
}

// Load reads the persisted entry. Missing, expired-retention, or corrupt
// data yields (nil, nil); corruption additionally wipes all keys so the
// next start is clean.
func (r *SQLiteRepository) Load(ctx context.Context) (*Entry, error) {
	token, err := r.get(ctx, r.db, keyToken)
	if err != nil {
		return nil, err
	}
	if len(token) == 0 {
		return nil, nil
	}

	profileRaw, err := r.get(ctx, r.db, keyUserProfile)
	if err != nil {
		return nil, err
	}
	expiresRaw, err := r.get(ctx, r.db, keyExpiresAt)
	if err != nil {
		return nil, err
	}
	retainRaw, err := r.get(ctx, r.db, keyRetainUntil)
	if err != nil {
		return nil, err
	}

	if len(profileRaw) == 0 || len(expiresRaw) == 0 || len(retainRaw) == 0 {
		return nil, r.Clear(ctx)
	}

	retainUntil, err := time.Parse(time.RFC3339, string(retainRaw))
	if err != nil {
		return nil, r.Clear(ctx)
	}
	if !r.clk.Now().Before(retainUntil) {
		// Past retention: not corruption, just an entry that aged out.
		return nil, r.Clear(ctx)
	}

	expiryAt, err := time.Parse(time.RFC3339, string(expiresRaw))
	if err != nil {
		return nil, r.Clear(ctx)
	}

	var profile models.UserProfile
	if err := json.Unmarshal(profileRaw, &profile); err != nil {
		return nil, r.Clear(ctx)
	}

	return &Entry{
		Token:       string(token),
		User:        profile,
		ExpiryAt:    expiryAt,
		RetainUntil: retainUntil,
	}, nil
}

// Save persists the entry, replacing any previous one, in a single
// transaction.
func (r *SQLiteRepository) Save(ctx context.Context, entry *Entry) error {
	profileRaw, err := json.Marshal(entry.User)
	if err != nil {
		return fmt.Errorf("failed to serialize user profile: %w", err)
	}

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := r.set(ctx, tx, keyToken, []byte(entry.Token)); err != nil {
			return err
		}
		if err := r.set(ctx, tx, keyUserProfile, profileRaw); err != nil {
			return err
		}
		if err := r.set(ctx, tx, keyExpiresAt, []byte(entry.ExpiryAt.Format(time.RFC3339))); err != nil {
			return err
		}
		return r.set(ctx, tx, keyRetainUntil, []byte(entry.RetainUntil.Format(time.RFC3339)))
	})
}

// Clear removes every stored key. Safe to call when nothing is stored.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials`)
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
