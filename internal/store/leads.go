package store

import (
	"context"

	"github.com/wontivero/infotechLibros/internal/feed"
	"github.com/wontivero/infotechLibros/internal/models"
)

// CreateLead registers someone waiting for an out-of-stock book.
func (s *Store) CreateLead(ctx context.Context, lead *models.WaitlistLead) error {
	lead.ID = newID()
	lead.CreatedAt = s.now()
	query := `
		INSERT INTO waitlist_leads (id, book_id, book_title, name, phone, created_at)
		VALUES (:id, :book_id, :book_title, :name, :phone, :created_at)
	`
	if _, err := s.DB.NamedExecContext(ctx, query, lead); err != nil {
		return err
	}
	s.publish(CollectionLeads, feed.OpCreate, lead.ID)
	return nil
}

// ListLeads returns every lead, newest first.
func (s *Store) ListLeads(ctx context.Context) ([]models.WaitlistLead, error) {
	var leads []models.WaitlistLead
	query := `SELECT id, book_id, book_title, name, phone, created_at FROM waitlist_leads ORDER BY created_at DESC, id`
	if err := s.DB.SelectContext(ctx, &leads, query); err != nil {
		return nil, err
	}
	return leads, nil
}
