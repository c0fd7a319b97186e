// Package catalog answers free-text searches over the book catalog and
// derives prices for the intake form.
package catalog

import (
	"strings"

	"github.com/wontivero/infotechLibros/internal/models"
)

// Result of a catalog search. Empty is set when the query was blank, so the
// page can show its idle state instead of "no matches".
type Result struct {
	Empty bool
	Books []models.Book
}

// Search keeps the books whose search text contains every query token, in
// the order given.
func Search(query string, books []models.Book) Result {
	if strings.TrimSpace(query) == "" {
		return Result{Empty: true}
	}
	tokens := models.Tokenize(query)

	matches := make([]models.Book, 0)
	for _, b := range books {
		if models.MatchAll(b.SearchText(), tokens) {
			matches = append(matches, b)
		}
	}
	return Result{Books: matches}
}
