package store

import (
	"context"

	"github.com/wontivero/infotechLibros/internal/models"
)

type DashboardStats struct {
	TotalBooks     int
	WaitlistBooks  int
	TotalOrders    int
	TotalLeads     int
	OrdersByStatus map[models.Status]int
}

type StatusCount struct {
	Status models.Status
	Count  int
}

// StatusCounts lists OrdersByStatus in board column order, skipping empty
// columns.
func (d DashboardStats) StatusCounts() []StatusCount {
	var out []StatusCount
	for _, st := range models.Ring {
		if n := d.OrdersByStatus[st]; n > 0 {
			out = append(out, StatusCount{Status: st, Count: n})
		}
	}
	return out
}

// GetDashboardStats powers the counters above the board.
func (s *Store) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{
		OrdersByStatus: make(map[models.Status]int),
	}

	counts := []struct {
		dst   *int
		query string
	}{
		{&stats.TotalBooks, `SELECT COUNT(*) FROM books`},
		{&stats.WaitlistBooks, `SELECT COUNT(*) FROM books WHERE waitlist = 1`},
		{&stats.TotalOrders, `SELECT COUNT(*) FROM orders`},
		{&stats.TotalLeads, `SELECT COUNT(*) FROM waitlist_leads`},
	}
	for _, c := range counts {
		if err := s.DB.GetContext(ctx, c.dst, c.query); err != nil {
			return nil, err
		}
	}

	var rows []struct {
		Status models.Status `db:"status"`
		Count  int           `db:"n"`
	}
	if err := s.DB.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS n FROM orders GROUP BY status`); err != nil {
		return nil, err
	}
	for _, r := range rows {
		// unknown legacy values count as intake, like the board does
		stats.OrdersByStatus[models.Ring[r.Status.Index()]] += r.Count
	}

	return stats, nil
}
