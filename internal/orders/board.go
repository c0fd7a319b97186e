package orders

import (
	"strings"
	"time"

	"github.com/wontivero/infotechLibros/internal/models"
)

// Mode selects which creation dates the board shows when no search is active.
type Mode string

const (
	ModeToday Mode = "today"
	ModeAll   Mode = "all"
	ModeDate  Mode = "date"
)

// Filter is the board's date filter plus the optional keyword search.
type Filter struct {
	Mode  Mode
	Date  string // YYYY-MM-DD, used by ModeDate
	Query string
}

// ParseFilter builds a Filter from query-string values. Unknown modes fall
// back to today.
func ParseFilter(mode, date, query string) Filter {
	f := Filter{Mode: Mode(mode), Date: strings.TrimSpace(date), Query: query}
	switch f.Mode {
	case ModeAll, ModeDate:
	default:
		f.Mode = ModeToday
	}
	return f
}

// SearchActive reports whether a keyword search overrides the date filter.
func (f Filter) SearchActive() bool {
	return strings.TrimSpace(f.Query) != ""
}

type Card struct {
	models.Order
	Printable bool
}

type Column struct {
	Status models.Status
	Label  string
	Cards  []Card
}

type BoardView struct {
	Columns      [len(models.Ring)]Column
	Filter       Filter
	SearchActive bool
	Count        int
}

// Board partitions orders by status for one shop location.
type Board struct {
	Loc *time.Location
}

// View filters orders and splits them into the four status columns. Input
// order is preserved inside each column. Unknown statuses land in intake.
func (b Board) View(orders []models.Order, f Filter, now time.Time) BoardView {
	loc := b.Loc
	if loc == nil {
		loc = time.Local
	}

	v := BoardView{Filter: f, SearchActive: f.SearchActive()}
	for i, st := range models.Ring {
		v.Columns[i] = Column{Status: st, Label: st.Label(), Cards: []Card{}}
	}

	keep := b.dateFilter(f, now.In(loc), loc)
	if v.SearchActive {
		tokens := models.Tokenize(f.Query)
		keep = func(o models.Order) bool { return models.MatchAll(o.SearchText(), tokens) }
	}

	for _, o := range orders {
		if !keep(o) {
			continue
		}
		col := &v.Columns[o.Status.Index()]
		col.Cards = append(col.Cards, Card{Order: o, Printable: o.Status.Printable()})
		v.Count++
	}
	return v
}

func (b Board) dateFilter(f Filter, now time.Time, loc *time.Location) func(models.Order) bool {
	switch f.Mode {
	case ModeAll:
		return func(models.Order) bool { return true }
	case ModeDate:
		if f.Date == "" {
			return func(models.Order) bool { return false }
		}
		return func(o models.Order) bool {
			return !o.CreatedAt.IsZero() && o.CreatedAt.In(loc).Format(time.DateOnly) == f.Date
		}
	default:
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
		return func(o models.Order) bool {
			return !o.CreatedAt.IsZero() && !o.CreatedAt.Before(midnight)
		}
	}
}
