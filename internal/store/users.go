package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wontivero/infotechLibros/internal/models"
)

// GetUserByUsername returns nil, nil when no such staff member exists.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.DB.GetContext(ctx, &user, `SELECT id, username, password FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser is mainly for seeding the first staff account
func (s *Store) CreateUser(ctx context.Context, username, hashedPassword string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (username, password) VALUES (?, ?)`, username, hashedPassword)
	return err
}
