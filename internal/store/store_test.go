package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/wontivero/infotechLibros/internal/feed"
	"github.com/wontivero/infotechLibros/internal/models"
	"github.com/wontivero/infotechLibros/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:", feed.NewBroker())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.MigrateFS(context.Background(), migrations.FS))
	return s
}

// clock returns a now func that advances one minute per call.
func clock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.MigrateFS(context.Background(), migrations.FS))

	var n int
	require.NoError(t, s.DB.Get(&n, `SELECT COUNT(*) FROM schema_migrations`))
	require.Equal(t, 1, n)
}

func TestBooksCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sub := s.Subscribe(CollectionBooks)
	defer sub.Close()

	zeta := &models.Book{Title: "Zeta", Publisher: "Kapelusz", Pages: 100, PriceMono: decimal.NewFromInt(7000), PriceColor: decimal.NewFromInt(10000)}
	alpha := &models.Book{Title: "alpha", Publisher: "Santillana", Waitlist: true, PriceMono: decimal.NewFromInt(1), PriceColor: decimal.NewFromInt(2)}
	require.NoError(t, s.CreateBook(ctx, zeta))
	require.NotEmpty(t, zeta.ID)

	ev := <-sub.C()
	require.Equal(t, feed.OpCreate, ev.Op)
	require.Equal(t, zeta.ID, ev.ID)

	require.NoError(t, s.CreateBook(ctx, alpha))
	<-sub.C()

	books, err := s.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.Equal(t, "alpha", books[0].Title)
	require.True(t, books[0].Waitlist)
	require.Nil(t, books[0].CoverURL)
	require.True(t, books[1].PriceColor.Equal(decimal.NewFromInt(10000)))

	cover := "/static/uploads/x.jpg"
	zeta.CoverURL = &cover
	zeta.Title = "Zeta 2"
	require.NoError(t, s.UpdateBook(ctx, zeta))
	require.Equal(t, feed.OpUpdate, (<-sub.C()).Op)

	got, err := s.GetBook(ctx, zeta.ID)
	require.NoError(t, err)
	require.Equal(t, "Zeta 2", got.Title)
	require.Equal(t, cover, got.Cover())

	require.NoError(t, s.DeleteBook(ctx, zeta.ID))
	require.Equal(t, feed.OpDelete, (<-sub.C()).Op)

	_, err = s.GetBook(ctx, zeta.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.DeleteBook(ctx, zeta.ID), ErrNotFound)
	require.ErrorIs(t, s.UpdateBook(ctx, zeta), ErrNotFound)
}

func testOrder(code string) *models.Order {
	return &models.Order{
		TrackingCode: code,
		Customer:     models.Customer{Name: "Ana", Phone: "3515551234"},
		Referent:     "Juan",
		Status:       models.StatusIntake,
		Deposit:      decimal.NewFromInt(3000),
		Total:        decimal.NewFromInt(10000),
		Balance:      decimal.NewFromInt(7000),
		Description:  "Matemática 3 (3A)",
		Detail:       models.Detail{Recipient: "Juan", Institution: "San José", Grade: "3A", BookTitle: "Matemática 3"},
	}
}

func TestOrders(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.now = clock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	first := testOrder("AAAA11")
	second := testOrder("BBBB22")
	require.NoError(t, s.CreateOrder(ctx, first))
	require.NoError(t, s.CreateOrder(ctx, second))

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "BBBB22", orders[0].TrackingCode, "newest first")
	require.Equal(t, "Ana", orders[0].Customer.Name)
	require.Equal(t, "San José", orders[0].Detail.Institution)
	require.True(t, orders[0].Balance.Equal(decimal.NewFromInt(7000)))
	require.True(t, orders[0].CreatedAt.Equal(second.CreatedAt))

	dup := testOrder("AAAA11")
	require.ErrorIs(t, s.CreateOrder(ctx, dup), ErrDuplicateTracking)

	require.NoError(t, s.UpdateOrderStatus(ctx, first.ID, models.StatusInProgress))
	got, err := s.GetOrder(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusInProgress, got.Status)

	require.ErrorIs(t, s.UpdateOrderStatus(ctx, "missing", models.StatusDone), ErrNotFound)
	_, err = s.GetOrder(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLeadsAndStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.now = clock(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))

	require.NoError(t, s.CreateLead(ctx, &models.WaitlistLead{BookTitle: "Física", Name: "Ana", Phone: "351"}))
	require.NoError(t, s.CreateLead(ctx, &models.WaitlistLead{BookTitle: "Química", Name: "Leo", Phone: "352"}))

	leads, err := s.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	require.Equal(t, "Leo", leads[0].Name)

	require.NoError(t, s.CreateBook(ctx, &models.Book{Title: "Física", Waitlist: true}))
	require.NoError(t, s.CreateOrder(ctx, testOrder("CCCC33")))
	_, err = s.DB.Exec(`UPDATE orders SET status = 'gris'`)
	require.NoError(t, err)

	stats, err := s.GetDashboardStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, stats.TotalBooks)
	require.Equal(t, 1, stats.WaitlistBooks)
	require.Equal(t, 1, stats.TotalOrders)
	require.Equal(t, 2, stats.TotalLeads)
	require.Equal(t, 1, stats.OrdersByStatus[models.StatusIntake])
}

func TestStatusCountsFollowRing(t *testing.T) {
	d := DashboardStats{OrdersByStatus: map[models.Status]int{
		models.StatusDone:       4,
		models.StatusIntake:     2,
		models.StatusReady:      1,
		models.StatusInProgress: 0,
	}}
	for range 10 {
		require.Equal(t, []StatusCount{
			{models.StatusIntake, 2},
			{models.StatusReady, 1},
			{models.StatusDone, 4},
		}, d.StatusCounts())
	}
	require.Empty(t, DashboardStats{}.StatusCounts())
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u, err := s.GetUserByUsername(ctx, "staff")
	require.NoError(t, err)
	require.Nil(t, u)

	require.NoError(t, s.CreateUser(ctx, "staff", "hash"))
	u, err = s.GetUserByUsername(ctx, "staff")
	require.NoError(t, err)
	require.Equal(t, "hash", u.Password)
	require.Error(t, s.CreateUser(ctx, "staff", "again"))
}
