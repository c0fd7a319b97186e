package catalog

import (
	"context"

	"github.com/wontivero/infotechLibros/internal/feed"
	"github.com/wontivero/infotechLibros/internal/models"
	"github.com/wontivero/infotechLibros/internal/store"
)

// Source is the slice of the store the catalog cache needs.
type Source interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	Subscribe(collection string) *feed.Subscription
}

// Cache is the live, title-ordered copy of the catalog that searches run
// against.
type Cache struct {
	mirror *feed.Mirror[models.Book]
}

func NewCache(src Source) *Cache {
	return &Cache{
		mirror: feed.NewMirror(store.CollectionBooks,
			func() *feed.Subscription { return src.Subscribe(store.CollectionBooks) },
			src.ListBooks),
	}
}

func (c *Cache) Start(ctx context.Context) error { return c.mirror.Start(ctx) }

func (c *Cache) Close() { c.mirror.Close() }

func (c *Cache) Books() []models.Book { return c.mirror.Items() }

func (c *Cache) Search(query string) Result {
	return Search(query, c.mirror.Items())
}

// Get looks a book up by id in the cached list.
func (c *Cache) Get(id string) (models.Book, bool) {
	for _, b := range c.mirror.Items() {
		if b.ID == id {
			return b, true
		}
	}
	return models.Book{}, false
}
