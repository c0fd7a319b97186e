package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/wontivero/infotechLibros/internal/feed"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Collection names double as feed topics.
const (
	CollectionBooks  = "books"
	CollectionOrders = "orders"
	CollectionLeads  = "waitlist_leads"
)

var (
	ErrNotFound          = errors.New("store: not found")
	ErrDuplicateTracking = errors.New("store: tracking code already in use")
)

type Store struct {
	DB   *sqlx.DB
	feed *feed.Broker
	now  func() time.Time
}

// NewStore opens the database. Writes are announced on broker; pass nil to
// get a private broker.
func NewStore(dataSourceName string, broker *feed.Broker) (*Store, error) {
	db, err := sqlx.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	// SQLite allows one writer; a single connection also keeps
	// in-memory databases shared between callers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, err
	}
	if broker == nil {
		broker = feed.NewBroker()
	}

	return &Store{DB: db, feed: broker, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Subscribe opens a live change stream on one collection.
func (s *Store) Subscribe(collection string) *feed.Subscription {
	return s.feed.Subscribe(collection)
}

func (s *Store) publish(collection string, op feed.Op, id string) {
	s.feed.Publish(feed.Event{Collection: collection, Op: op, ID: id, At: s.now()})
}

func newID() string {
	return uuid.NewString()
}

func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

func expectOneRow(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// InitSchema creates the minimum needed by the CLI before migrations run.
func (s *Store) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	);
	`
	_, err := s.DB.ExecContext(ctx, query)
	if err != nil {
		slog.Error("Error creating schema", "error", err)
		return err
	}
	return nil
}
