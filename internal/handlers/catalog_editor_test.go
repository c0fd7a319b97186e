package handlers

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateBookDerivesPrices(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	rec := e.client.postForm("/catalog", url.Values{"title": {"Ciencias 4"}, "publisher": {"Estrada"}, "pages": {"40"}, "waitlist": {"on"}})
	require.Equal(t, "/catalog", rec.Header().Get("Location"))
	require.Contains(t, e.client.follow(rec).Body.String(), "Added Ciencias 4.")

	books, err := e.app.Store.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, "4000", books[0].PriceMono.String())
	require.Equal(t, "5200", books[0].PriceColor.String())
	require.True(t, books[0].Waitlist)
	require.Nil(t, books[0].CoverURL)
}

func TestCreateBookValidation(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	body := e.client.follow(e.client.postForm("/catalog", url.Values{"pages": {"-3"}, "price_color": {"abc"}})).Body.String()
	require.Contains(t, body, "Title is required.")
	require.Contains(t, body, "Pages must be a whole number.")
	require.Contains(t, body, "Invalid price format.")

	books, err := e.app.Store.ListBooks(context.Background())
	require.NoError(t, err)
	require.Empty(t, books)
}

func multipartBook(t *testing.T, path string, fields map[string]string, cover []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if cover != nil {
		fw, err := mw.CreateFormFile("cover", "cover.png")
		require.NoError(t, err)
		_, err = fw.Write(cover)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, baseURL.String()+path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestCreateAndReplaceCover(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	rec := e.client.do(multipartBook(t, "/catalog", map[string]string{"title": "Lengua 2", "price_mono": "3000", "price_color": "4500"}, pngBytes(t, 1200, 600)))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	books, err := e.app.Store.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 1)
	book := books[0]
	require.Equal(t, "4500", book.PriceColor.String())
	first := book.Cover()
	require.True(t, strings.HasPrefix(first, "/uploads/"), first)
	firstFile := filepath.Join(e.app.Media.Dir(), filepath.Base(first))
	require.FileExists(t, firstFile)

	rec = e.client.do(multipartBook(t, "/catalog/"+book.ID, map[string]string{"title": "Lengua 2", "pages": "10"}, pngBytes(t, 10, 10)))
	require.Equal(t, "/catalog", rec.Header().Get("Location"))

	updated, err := e.app.Store.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	require.NotEqual(t, first, updated.Cover())
	require.Equal(t, "2800", updated.PriceColor.String())
	_, err = os.Stat(firstFile)
	require.True(t, os.IsNotExist(err))

	rec = e.client.postForm("/catalog/"+book.ID, url.Values{"title": {"Lengua 2"}, "pages": {"10"}, "remove_cover": {"on"}})
	require.Equal(t, "/catalog", rec.Header().Get("Location"))
	updated, err = e.app.Store.GetBook(context.Background(), book.ID)
	require.NoError(t, err)
	require.Nil(t, updated.CoverURL)
}

func TestCreateBookRejectsUnsupportedCover(t *testing.T) {
	e := newTestEnv(t)
	e.login()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Lengua 2"))
	require.NoError(t, mw.WriteField("pages", "10"))
	fw, err := mw.CreateFormFile("cover", "cover.gif")
	require.NoError(t, err)
	fw.Write([]byte("GIF89a"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, baseURL.String()+"/catalog", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body := e.client.follow(e.client.do(req)).Body.String()
	require.Contains(t, body, "Unsupported image format.")
}

func TestCatalogEditForm(t *testing.T) {
	e := newTestEnv(t)
	e.login()
	book := e.addBook("Matemática 3", false)

	body := e.client.get("/catalog?edit=" + book.ID).Body.String()
	require.Contains(t, body, "Edit Matemática 3")
	require.Contains(t, body, `action="/catalog/`+book.ID+`"`)

	rec := e.client.get("/catalog?edit=nope")
	require.Contains(t, e.client.follow(rec).Body.String(), "Book not found.")

	rec = e.client.postForm("/catalog/nope", url.Values{"title": {"x"}, "pages": {"1"}})
	require.Contains(t, e.client.follow(rec).Body.String(), "Book not found.")
}
