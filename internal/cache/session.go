package cache

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fragmede/ativo/internal/auth"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "expires_at"
	keyUserID       = "user_id"
	keyUserEmail    = "user_email"
	keySavedAt      = "saved_at"
)

// LoadSession returns the persisted session, or nil when none is stored.
func (d *DB) LoadSession() (*auth.RemoteSession, error) {
	rows, err := d.db.Query(`SELECT key, value FROM session`)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("reading session: %w", err)
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	if kv[keyAccessToken] == "" || kv[keyUserID] == "" {
		return nil, nil
	}
	s := &auth.RemoteSession{
		AccessToken:  kv[keyAccessToken],
		RefreshToken: kv[keyRefreshToken],
		User:         auth.Identity{ID: kv[keyUserID], Email: kv[keyUserEmail]},
	}
	if unix, err := strconv.ParseInt(kv[keyExpiresAt], 10, 64); err == nil && unix > 0 {
		s.ExpiresAt = time.Unix(unix, 0)
	}
	return s, nil
}

// SaveSession replaces the persisted session.
func (d *DB) SaveSession(s *auth.RemoteSession) error {
	if s == nil {
		return d.ClearSession()
	}
	var expires string
	if !s.ExpiresAt.IsZero() {
		expires = strconv.FormatInt(s.ExpiresAt.Unix(), 10)
	}
	values := map[string]string{
		keyAccessToken:  s.AccessToken,
		keyRefreshToken: s.RefreshToken,
		keyExpiresAt:    expires,
		keyUserID:       s.User.ID,
		keyUserEmail:    s.User.Email,
		keySavedAt:      strconv.FormatInt(time.Now().Unix(), 10),
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM session`); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	for k, v := range values {
		if _, err := tx.Exec(`INSERT INTO session (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("saving session: %w", err)
		}
	}
	return tx.Commit()
}

// ClearSession removes the persisted session.
func (d *DB) ClearSession() error {
	_, err := d.db.Exec(`DELETE FROM session`)
	return err
}
