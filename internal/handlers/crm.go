package handlers

import (
	"log/slog"
	"net/http"

	"github.com/wontivero/infotechLibros/internal/crm"
)

// CRM lists waitlist leads grouped by book. Read once per page load.
func (a *App) CRM(w http.ResponseWriter, r *http.Request) {
	leads, err := a.Store.ListLeads(r.Context())
	if err != nil {
		slog.Error("Failed to list waitlist leads", "error", err)
		a.render(w, r, "crm.html", map[string]any{
			"Error": "The waitlist could not be loaded. Refresh to try again.",
		})
		return
	}
	a.render(w, r, "crm.html", map[string]any{
		"Groups": crm.ByBook(leads),
		"Total":  len(leads),
	})
}
