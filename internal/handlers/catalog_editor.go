package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wontivero/infotechLibros/internal/catalog"
	"github.com/wontivero/infotechLibros/internal/media"
	"github.com/wontivero/infotechLibros/internal/models"
	"github.com/wontivero/infotechLibros/internal/store"
)

const maxUploadSize = 10 << 20 // 10MB

// CatalogEditor lists every book with an add form, or an edit form when
// ?edit=<id> is given.
func (a *App) CatalogEditor(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Books": a.Catalog.Books(),
	}
	if id := r.URL.Query().Get("edit"); id != "" {
		book, err := a.Store.GetBook(r.Context(), id)
		if err != nil {
			a.redirectWithFlash(w, r, "/catalog", FlashMessage{Type: "error", Message: "Book not found."})
			return
		}
		data["Edit"] = book
	}
	a.render(w, r, "catalog.html", data)
}

// parseBookForm reads the editor fields into book. Blank prices are derived
// from the page count.
func parseBookForm(r *http.Request, book *models.Book) map[string]string {
	errs := make(map[string]string)

	book.Title = strings.TrimSpace(r.FormValue("title"))
	book.Publisher = strings.TrimSpace(r.FormValue("publisher"))
	book.Waitlist = r.FormValue("waitlist") != ""
	if book.Title == "" {
		errs["title"] = "Title is required."
	}

	book.Pages = 0
	if s := strings.TrimSpace(r.FormValue("pages")); s != "" {
		pages, err := strconv.Atoi(s)
		if err != nil || pages < 0 {
			errs["pages"] = "Pages must be a whole number."
		} else {
			book.Pages = pages
		}
	}

	mono, color := catalog.PagePrices(book.Pages)
	book.PriceMono = priceField(r, "price_mono", mono, book.Pages, errs)
	book.PriceColor = priceField(r, "price_color", color, book.Pages, errs)
	return errs
}

func priceField(r *http.Request, name string, derived decimal.Decimal, pages int, errs map[string]string) decimal.Decimal {
	s := strings.TrimSpace(r.FormValue(name))
	if s == "" {
		if pages == 0 {
			errs[name] = "Enter a price or a page count."
		}
		return derived
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		errs[name] = "Invalid price format."
		return decimal.Zero
	}
	return d
}

func (a *App) CreateBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		a.redirectWithFlash(w, r, "/catalog", FlashMessage{Type: "error", Message: "File too large. Max 10MB."})
		return
	}

	book := &models.Book{}
	if errs := parseBookForm(r, book); len(errs) > 0 {
		a.redirectWithFlash(w, r, "/catalog", validationFlashes(errs)...)
		return
	}

	cover, ok := a.uploadCover(w, r, "/catalog")
	if !ok {
		return
	}
	if cover != "" {
		book.CoverURL = &cover
	}

	if err := a.Store.CreateBook(r.Context(), book); err != nil {
		slog.Error("Failed to create book", "error", err)
		a.dropCover(r.Context(), book.Cover())
		a.redirectWithFlash(w, r, "/catalog", FlashMessage{Type: "error", Message: "Error saving the book."})
		return
	}
	a.redirectWithFlash(w, r, "/catalog", FlashMessage{Type: "success", Message: "Added " + book.Title + "."})
}

func (a *App) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	editURL := "/catalog?edit=" + url.QueryEscape(id)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		a.redirectWithFlash(w, r, editURL, FlashMessage{Type: "error", Message: "File too large. Max 10MB."})
		return
	}

	book, err := a.Store.GetBook(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		a.redirectWithFlash(w, r, "/catalog", FlashMessage{Type: "error", Message: "Book not found."})
		return
	}
	if err != nil {
		slog.Error("Failed to load book", "id", id, "error", err)
		a.redirectWithFlash(w, r, "/catalog", FlashMessage{Type: "error", Message: "Error loading the book."})
		return
	}
	oldCover := book.Cover()

	if errs := parseBookForm(r, book); len(errs) > 0 {
		a.redirectWithFlash(w, r, editURL, validationFlashes(errs)...)
		return
	}

	newCover, ok := a.uploadCover(w, r, editURL)
	if !ok {
		return
	}
	switch {
	case newCover != "":
		book.CoverURL = &newCover
	case r.FormValue("remove_cover") != "":
		book.CoverURL = nil
	}

	if err := a.Store.UpdateBook(r.Context(), book); err != nil {
		slog.Error("Failed to update book", "id", id, "error", err)
		a.dropCover(r.Context(), newCover)
		a.redirectWithFlash(w, r, editURL, FlashMessage{Type: "error", Message: "Error updating the book."})
		return
	}
	if oldCover != "" && oldCover != book.Cover() {
		a.dropCover(r.Context(), oldCover)
	}
	a.redirectWithFlash(w, r, "/catalog", FlashMessage{Type: "success", Message: "Updated " + book.Title + "."})
}

// uploadCover stores the optional "cover" file. ok is false when a response
// has already been written.
func (a *App) uploadCover(w http.ResponseWriter, r *http.Request, back string) (string, bool) {
	file, header, err := r.FormFile("cover")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", true
	}
	if err != nil {
		a.redirectWithFlash(w, r, back, FlashMessage{Type: "error", Message: "Could not read the uploaded file."})
		return "", false
	}
	defer file.Close()

	cover, err := a.Media.Put(r.Context(), header.Filename, file)
	if errors.Is(err, media.ErrUnsupportedFormat) {
		a.redirectWithFlash(w, r, back, FlashMessage{Type: "error", Message: "Unsupported image format. Only PNG, JPG, JPEG are allowed."})
		return "", false
	}
	if err != nil {
		slog.Error("Failed to store cover", "error", err)
		a.redirectWithFlash(w, r, back, FlashMessage{Type: "error", Message: "Error saving the cover image."})
		return "", false
	}
	return cover, true
}

// dropCover deletes a cover object. Failures only leave an orphaned file,
// so they are logged and otherwise ignored.
func (a *App) dropCover(ctx context.Context, coverURL string) {
	if coverURL == "" || a.Media == nil {
		return
	}
	if err := a.Media.Delete(ctx, coverURL); err != nil {
		slog.Warn("Failed to delete cover, ignoring", "url", coverURL, "error", err)
	}
}

func validationFlashes(errs map[string]string) []FlashMessage {
	out := make([]FlashMessage, 0, len(errs))
	for _, msg := range errs {
		out = append(out, FlashMessage{Type: "error", Message: msg})
	}
	return out
}
