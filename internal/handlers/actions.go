package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/wontivero/infotechLibros/internal/catalog"
	"github.com/wontivero/infotechLibros/internal/messaging"
	"github.com/wontivero/infotechLibros/internal/models"
	"github.com/wontivero/infotechLibros/internal/orders"
	"github.com/wontivero/infotechLibros/internal/store"
)

// actionResult tells the dispatcher where to go next and what to show.
type actionResult struct {
	Redirect string
	Flash    FlashMessage
}

// actionFunc runs one named action against the entity id. The request is
// passed for actions that read extra form fields.
type actionFunc func(ctx context.Context, a *App, r *http.Request, id string) (actionResult, error)

// actionTable maps the action names the pages post to their handlers.
var actionTable = map[string]actionFunc{
	"order.advance":        advanceOrder,
	"book.delete":          deleteBook,
	"book.load":            loadBook,
	"lead.add":             addLead,
	"book.quote":           quoteBook,
	"book.waitlist_notice": waitlistNotice,
}

// Dispatch resolves POST /actions {action, id} through actionTable. Every
// outcome ends in a redirect with a flash so the page stays usable.
func (a *App) Dispatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.redirectWithFlash(w, r, "/", FlashMessage{Type: "error", Message: "Invalid form data."})
		return
	}
	name := r.FormValue("action")
	id := strings.TrimSpace(r.FormValue("id"))
	back := returnTo(r, "/")

	fn, ok := actionTable[name]
	if !ok || id == "" {
		slog.Warn("Rejected action", "action", name, "id", id)
		a.redirectWithFlash(w, r, back, FlashMessage{Type: "error", Message: "Unknown action."})
		return
	}

	res, err := fn(r.Context(), a, r, id)
	if err != nil {
		slog.Error("Action failed", "action", name, "id", id, "error", err)
		a.redirectWithFlash(w, r, back, FlashMessage{Type: "error", Message: actionErrorMessage(err)})
		return
	}
	if res.Redirect == "" {
		res.Redirect = back
	}
	if res.Flash.Message == "" && res.Flash.Copy == "" {
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
		return
	}
	a.redirectWithFlash(w, r, res.Redirect, res.Flash)
}

func actionErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound), orders.Code(err) == orders.ErrOrderAbsent:
		return "It no longer exists. The page has been refreshed."
	case errors.Is(err, errMissingLeadContact):
		return "Name and phone are required to add someone to the waitlist."
	case errors.Is(err, errBookOnWaitlist):
		return "That book is on the waitlist. Add the customer to the waitlist instead."
	case errors.Is(err, errBookInStock):
		return "That book is in stock. Send a quote instead."
	default:
		return "The action could not be completed. Please try again."
	}
}

func advanceOrder(ctx context.Context, a *App, _ *http.Request, id string) (actionResult, error) {
	next, err := a.Intake.Advance(ctx, id)
	if err != nil {
		return actionResult{}, err
	}
	return actionResult{Flash: FlashMessage{Type: "success", Message: "Order moved to " + next.Label() + "."}}, nil
}

func deleteBook(ctx context.Context, a *App, _ *http.Request, id string) (actionResult, error) {
	book, err := a.Store.GetBook(ctx, id)
	if err != nil {
		return actionResult{}, err
	}
	if err := a.Store.DeleteBook(ctx, id); err != nil {
		return actionResult{}, err
	}
	a.dropCover(ctx, book.Cover())
	return actionResult{
		Redirect: "/catalog",
		Flash:    FlashMessage{Type: "success", Message: "Deleted " + book.Title + "."},
	}, nil
}

var (
	errBookOnWaitlist = errors.New("book is on the waitlist")
	errBookInStock    = errors.New("book is in stock")
)

// stockedBook returns the cached book when its waitlist flag matches.
func stockedBook(a *App, id string, waitlist bool) (models.Book, error) {
	book, ok := a.Catalog.Get(id)
	switch {
	case !ok:
		return models.Book{}, store.ErrNotFound
	case book.Waitlist && !waitlist:
		return models.Book{}, errBookOnWaitlist
	case !book.Waitlist && waitlist:
		return models.Book{}, errBookInStock
	}
	return book, nil
}

func loadBook(_ context.Context, a *App, r *http.Request, id string) (actionResult, error) {
	if _, err := stockedBook(a, id, false); err != nil {
		return actionResult{}, err
	}
	v := url.Values{"load": {id}}
	if q := r.FormValue("q"); q != "" {
		v.Set("q", q)
	}
	return actionResult{Redirect: "/?" + v.Encode()}, nil
}

var errMissingLeadContact = errors.New("lead name and phone are required")

func addLead(ctx context.Context, a *App, r *http.Request, id string) (actionResult, error) {
	name := strings.TrimSpace(r.FormValue("name"))
	phone := messaging.LocalPhone(r.FormValue("phone"))
	if name == "" || phone == "" {
		return actionResult{}, errMissingLeadContact
	}
	book, err := stockedBook(a, id, true)
	if err != nil {
		return actionResult{}, err
	}
	lead := &models.WaitlistLead{BookID: book.ID, BookTitle: book.Title, Name: name, Phone: phone}
	if err := a.Store.CreateLead(ctx, lead); err != nil {
		return actionResult{}, err
	}
	return actionResult{Flash: FlashMessage{Type: "success", Message: name + " is on the waitlist for " + book.Title + "."}}, nil
}

func quoteBook(_ context.Context, a *App, _ *http.Request, id string) (actionResult, error) {
	book, err := stockedBook(a, id, false)
	if err != nil {
		return actionResult{}, err
	}
	text := messaging.StockQuote(book.Title, book.PriceColor, catalog.SuggestedDeposit(book.PriceColor))
	return actionResult{Flash: FlashMessage{Type: "copy", Message: "Quote ready to paste.", Copy: text}}, nil
}

func waitlistNotice(_ context.Context, a *App, _ *http.Request, id string) (actionResult, error) {
	book, err := stockedBook(a, id, true)
	if err != nil {
		return actionResult{}, err
	}
	text := messaging.WaitlistNotice(book.Title)
	return actionResult{Flash: FlashMessage{Type: "copy", Message: "Waitlist reply ready to paste.", Copy: text}}, nil
}
