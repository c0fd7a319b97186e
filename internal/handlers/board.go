package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/wontivero/infotechLibros/internal/orders"
	"github.com/wontivero/infotechLibros/internal/store"
)

const qrEndpoint = "https://api.qrserver.com/v1/create-qr-code/?size=100x100&data="

// Board shows the cached orders in four status columns.
func (a *App) Board(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := orders.ParseFilter(q.Get("mode"), q.Get("date"), q.Get("q"))
	if filter.Mode == orders.ModeDate && !q.Has("date") {
		// the date picker opens on today
		filter.Date = a.now().In(a.location()).Format("2006-01-02")
	}

	view := orders.Board{Loc: a.location()}.View(a.Orders.Orders(), filter, a.now())

	stats, err := a.Store.GetDashboardStats(r.Context())
	if err != nil {
		slog.Error("Failed to load board stats", "error", err)
	}

	a.render(w, r, "board.html", map[string]any{
		"View":  view,
		"Stats": stats,
	})
}

// ExportCSV downloads the full cached order list.
func (a *App) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := orders.WriteCSV(&buf, a.Orders.Orders(), a.location())
	if errors.Is(err, orders.ErrNoOrders) {
		a.redirectWithFlash(w, r, "/board", FlashMessage{Type: "error", Message: "There are no orders to export."})
		return
	}
	if err != nil {
		slog.Error("Failed to build CSV export", "error", err)
		a.redirectWithFlash(w, r, "/board", FlashMessage{Type: "error", Message: "The export failed. Please try again."})
		return
	}

	name := orders.ExportFilename(a.now(), a.location())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	buf.WriteTo(w)
}

// Label renders a printable shipping label for a ready or delivered order.
func (a *App) Label(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	order, err := a.Store.GetOrder(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		a.redirectWithFlash(w, r, "/board", FlashMessage{Type: "error", Message: "Order not found."})
		return
	}
	if err != nil {
		slog.Error("Failed to load order for label", "id", id, "error", err)
		a.redirectWithFlash(w, r, "/board", FlashMessage{Type: "error", Message: "Could not load the order."})
		return
	}
	if !order.Status.Printable() {
		a.redirectWithFlash(w, r, "/board", FlashMessage{Type: "error", Message: "Labels can only be printed for orders that are ready or done."})
		return
	}

	a.render(w, r, "label.html", map[string]any{
		"Order": order,
		"QRURL": qrEndpoint + url.QueryEscape(order.ID),
	})
}
