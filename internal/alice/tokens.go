package alice

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountToken is a vendor session credential keyed by user id. It lives
// apart from the trade snapshot; the trade path never touches it. The broker
// integration reads it out of band through the internal token route.
type AccountToken struct {
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TokenStore persists account tokens in Postgres.
type TokenStore struct {
	pool *pgxpool.Pool
}

func NewTokenStore(pool *pgxpool.Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Save upserts the token for a user; a fresh OAuth round trip replaces
// whatever was stored before.
func (s *TokenStore) Save(ctx context.Context, userID, token string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO account_tokens (user_id, token, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET token = EXCLUDED.token, updated_at = NOW()
	`, userID, token)
	return err
}

// Get returns the stored token for a user.
func (s *TokenStore) Get(ctx context.Context, userID string) (AccountToken, error) {
	var t AccountToken
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, token, updated_at
		FROM account_tokens
		WHERE user_id = $1
	`, userID).Scan(&t.UserID, &t.Token, &t.UpdatedAt)
	return t, err
}
