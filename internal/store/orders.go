package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/wontivero/infotechLibros/internal/feed"
	"github.com/wontivero/infotechLibros/internal/models"
)

const orderColumns = `id, tracking_code, customer_name, customer_phone, referent, created_at, status,
	deposit, total, balance, description, recipient, institution, grade, book_title, book_id`

// CreateOrder stamps the id and creation time and inserts the order as given.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	order.ID = newID()
	order.CreatedAt = s.now()
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (:id, :tracking_code, :customer_name, :customer_phone, :referent, :created_at, :status,
			:deposit, :total, :balance, :description, :recipient, :institution, :grade, :book_title, :book_id)
	`
	if _, err := s.DB.NamedExecContext(ctx, query, order); err != nil {
		if isUniqueViolation(err, "orders.tracking_code") {
			return ErrDuplicateTracking
		}
		return err
	}
	s.publish(CollectionOrders, feed.OpCreate, order.ID)
	return nil
}

// ListOrders returns every order, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id`
	if err := s.DB.SelectContext(ctx, &orders, query); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := s.DB.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.Status) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	s.publish(CollectionOrders, feed.OpUpdate, id)
	return nil
}
