package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wontivero/infotechLibros/internal/feed"
	"github.com/wontivero/infotechLibros/internal/models"
)

const bookColumns = `id, title, publisher, pages, price_mono, price_color, cover_url, waitlist, created_at`

func (s *Store) CreateBook(ctx context.Context, book *models.Book) error {
	book.ID = newID()
	book.CreatedAt = s.now()
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES (:id, :title, :publisher, :pages, :price_mono, :price_color, :cover_url, :waitlist, :created_at)
	`
	if _, err := s.DB.NamedExecContext(ctx, query, book); err != nil {
		return err
	}
	s.publish(CollectionBooks, feed.OpCreate, book.ID)
	return nil
}

// ListBooks returns the catalog ordered by title.
func (s *Store) ListBooks(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	query := `SELECT ` + bookColumns + ` FROM books ORDER BY title COLLATE NOCASE, id`
	if err := s.DB.SelectContext(ctx, &books, query); err != nil {
		return nil, err
	}
	return books, nil
}

func (s *Store) GetBook(ctx context.Context, id string) (*models.Book, error) {
	var b models.Book
	err := s.DB.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBook overwrites every editable field, cover included.
func (s *Store) UpdateBook(ctx context.Context, book *models.Book) error {
	query := `
		UPDATE books
		SET title = :title, publisher = :publisher, pages = :pages,
		    price_mono = :price_mono, price_color = :price_color,
		    cover_url = :cover_url, waitlist = :waitlist
		WHERE id = :id
	`
	res, err := s.DB.NamedExecContext(ctx, query, book)
	if err != nil {
		return err
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	s.publish(CollectionBooks, feed.OpUpdate, book.ID)
	return nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	s.publish(CollectionBooks, feed.OpDelete, id)
	return nil
}
