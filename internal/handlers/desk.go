package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/wontivero/infotechLibros/internal/catalog"
	"github.com/wontivero/infotechLibros/internal/orders"
)

const (
	formKey       = "intake_form"
	formErrorsKey = "intake_errors"
)

var intakeFields = []string{
	"customer_name", "customer_phone", "recipient", "institution", "grade",
	"book_title", "book_id", "deposit", "total", "copies",
}

// Desk is the main page: catalog search on the left, intake form on the
// right. ?load=<book id> prefills the form from a catalog entry.
func (a *App) Desk(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	result := a.Catalog.Search(query)

	session, _ := a.SessionStore.Get(r, sessionName)
	form, _ := session.Values[formKey].(map[string]string)
	formErrors, _ := session.Values[formErrorsKey].(map[string]string)
	delete(session.Values, formKey)
	delete(session.Values, formErrorsKey)
	if form == nil {
		form = make(map[string]string)
	}

	if id := r.URL.Query().Get("load"); id != "" {
		book, ok := a.Catalog.Get(id)
		switch {
		case !ok:
			session.AddFlash(FlashMessage{Type: "error", Message: "That book is no longer in the catalog."})
		case book.Waitlist:
			session.AddFlash(FlashMessage{Type: "error", Message: "That book is on the waitlist and cannot be ordered."})
		default:
			p := catalog.LoadIntoForm(book)
			form["book_title"] = p.BookTitle
			form["book_id"] = p.BookID
			form["total"] = p.Total.String()
			form["deposit"] = p.Deposit.String()
		}
	}
	// render saves the session, which drops the consumed form state

	a.render(w, r, "desk.html", map[string]any{
		"Query":      query,
		"Result":     result,
		"Form":       form,
		"FormErrors": formErrors,
		"AIEnabled":  a.Extractor != nil,
	})
}

func intakeFormFromRequest(r *http.Request) orders.IntakeForm {
	copies, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("copies")))
	return orders.IntakeForm{
		CustomerName:  r.FormValue("customer_name"),
		CustomerPhone: r.FormValue("customer_phone"),
		Recipient:     r.FormValue("recipient"),
		Institution:   r.FormValue("institution"),
		Grade:         r.FormValue("grade"),
		BookTitle:     r.FormValue("book_title"),
		BookID:        r.FormValue("book_id"),
		Deposit:       r.FormValue("deposit"),
		Total:         r.FormValue("total"),
		Clone:         r.FormValue("clone") != "",
		Copies:        copies,
	}
}

// CreateOrder handles the intake form.
func (a *App) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.redirectWithFlash(w, r, "/", FlashMessage{Type: "error", Message: "Invalid form data."})
		return
	}
	back := returnTo(r, "/")

	res, err := a.Intake.Create(r.Context(), intakeFormFromRequest(r))
	if err != nil {
		var verr *orders.ValidationError
		var perr *orders.PartialFailureError
		switch {
		case errors.As(err, &verr):
			a.keepForm(w, r, verr.Fields)
			a.redirectWithFlash(w, r, back, FlashMessage{Type: "error", Message: "Please fix the highlighted fields."})
		case errors.As(err, &perr):
			slog.Error("Order batch partially failed", "created", len(perr.Created), "failed", len(perr.Failed), "error", err)
			a.redirectWithFlash(w, r, back, FlashMessage{Type: "error", Message: partialFailureMessage(perr)})
		default:
			slog.Error("Failed to create order", "error", err)
			a.keepForm(w, r, nil)
			a.redirectWithFlash(w, r, back, FlashMessage{Type: "error", Message: "The order was not saved. Please try again."})
		}
		return
	}

	slog.Info("Orders created", "count", len(res.Orders), "first", res.Orders[0].TrackingCode)
	notice := fmt.Sprintf("%d order(s) saved.", len(res.Orders))
	a.redirectWithFlash(w, r, back, FlashMessage{
		Type:    "order_created",
		Message: notice,
		Copy:    res.Message,
		Link:    res.DeepLink,
	})
}

// keepForm stashes the submitted values so the desk can show them again.
func (a *App) keepForm(w http.ResponseWriter, r *http.Request, fieldErrors map[string]string) {
	session, _ := a.SessionStore.Get(r, sessionName)
	values := make(map[string]string, len(intakeFields)+1)
	for _, f := range intakeFields {
		values[f] = r.FormValue(f)
	}
	if r.FormValue("clone") != "" {
		values["clone"] = "on"
	}
	session.Values[formKey] = values
	if fieldErrors != nil {
		session.Values[formErrorsKey] = fieldErrors
	}
	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
	}
}

func partialFailureMessage(perr *orders.PartialFailureError) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Only %d of %d orders were saved.", len(perr.Created), len(perr.Created)+len(perr.Failed))
	if len(perr.Created) > 0 {
		codes := make([]string, 0, len(perr.Created))
		for _, c := range perr.Created {
			codes = append(codes, fmt.Sprintf("#%d %s", c.Index, c.TrackingCode))
		}
		b.WriteString(" Saved: " + strings.Join(codes, ", ") + ".")
	}
	failed := make([]string, 0, len(perr.Failed))
	for _, f := range perr.Failed {
		failed = append(failed, fmt.Sprintf("#%d", f.Index))
	}
	b.WriteString(" Not saved: " + strings.Join(failed, ", ") + ". Enter the missing copies again.")
	return b.String()
}
