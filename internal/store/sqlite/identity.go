package sqlite

import (
	"context"
	"fmt"

	"github.com/hublift/hublift/internal/store"
)

// CreateUser inserts a local account.
func (s *Store) CreateUser(ctx context.Context, user *store.User) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, name, email) VALUES (?, ?, ?)`,
		user.Username, user.Name, user.Email)
	if err != nil {
		return fmt.Errorf("failed to create user %q: %w", user.Username, err)
	}
	user.ID, err = res.LastInsertId()
	return err
}

// AddUserEmail registers a secondary email for a local account.
func (s *Store) AddUserEmail(ctx context.Context, userID int64, email string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_emails (user_id, email) VALUES (?, ?)`, userID, email)
	if err != nil {
		return fmt.Errorf("failed to add email %q: %w", email, err)
	}
	return nil
}

// AddIdentity links an external provider identity to a local account.
func (s *Store) AddIdentity(ctx context.Context, userID int64, provider string, externUID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (user_id, provider, extern_uid) VALUES (?, ?, ?)`,
		userID, provider, externUID)
	if err != nil {
		return fmt.Errorf("failed to add identity %s/%d: %w", provider, externUID, err)
	}
	return nil
}

// UserByExternalUID finds the local account linked to an external
// provider identity. Returns store.ErrNotFound when no link exists.
func (s *Store) UserByExternalUID(ctx context.Context, provider string, externUID int64) (int64, error) {
	return s.scalarID(ctx,
		`SELECT user_id FROM identities WHERE provider = ? AND extern_uid = ?`,
		provider, externUID)
}

// UserByAnyEmail finds a local account by primary or secondary email.
// Returns store.ErrNotFound when no account matches.
func (s *Store) UserByAnyEmail(ctx context.Context, email string) (int64, error) {
	return s.scalarID(ctx,
		`SELECT id FROM users WHERE email = ?
		 UNION
		 SELECT user_id FROM user_emails WHERE email = ?
		 LIMIT 1`,
		email, email)
}
