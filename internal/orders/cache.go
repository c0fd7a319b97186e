package orders

import (
	"context"

	"github.com/wontivero/infotechLibros/internal/feed"
	"github.com/wontivero/infotechLibros/internal/models"
	"github.com/wontivero/infotechLibros/internal/store"
)

// Source is the slice of the store the order cache needs.
type Source interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	Subscribe(collection string) *feed.Subscription
}

// Cache mirrors the full order list, newest first. The board and the CSV
// export both read from it.
type Cache struct {
	mirror *feed.Mirror[models.Order]
}

func NewCache(src Source) *Cache {
	return &Cache{
		mirror: feed.NewMirror(store.CollectionOrders,
			func() *feed.Subscription { return src.Subscribe(store.CollectionOrders) },
			src.ListOrders),
	}
}

func (c *Cache) Start(ctx context.Context) error { return c.mirror.Start(ctx) }

func (c *Cache) Close() { c.mirror.Close() }

func (c *Cache) Orders() []models.Order { return c.mirror.Items() }
