// Package crm groups waitlist leads by the book they are waiting for.
package crm

import (
	"strings"

	"github.com/wontivero/infotechLibros/internal/messaging"
	"github.com/wontivero/infotechLibros/internal/models"
)

// FallbackTitle labels leads registered without a book title.
const FallbackTitle = "Various books"

type Lead struct {
	models.WaitlistLead
	NotifyLink string
}

type Group struct {
	BookTitle string
	Leads     []Lead
}

func (g Group) Count() int { return len(g.Leads) }

// ByBook buckets leads by book title. Groups appear in the order their first
// lead appears in leads, and leads keep their relative order.
func ByBook(leads []models.WaitlistLead) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)

	for _, l := range leads {
		key := strings.TrimSpace(l.BookTitle)
		if key == "" {
			key = FallbackTitle
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{BookTitle: key})
		}
		groups[i].Leads = append(groups[i].Leads, Lead{
			WaitlistLead: l,
			NotifyLink:   messaging.Link(l.Phone, messaging.NowAvailable(key)),
		})
	}
	return groups
}
