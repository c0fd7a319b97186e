package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/wontivero/infotechLibros/internal/assist"
)

const maxPasteLength = 8 << 10

// Extract turns a pasted customer message into intake fields. The model key
// never leaves the server; the page only sees the extracted fields.
func (a *App) Extract(w http.ResponseWriter, r *http.Request) {
	if a.Extractor == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"code":    "AI_DISABLED",
			"message": "Message extraction is not configured.",
		})
		return
	}

	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"code":    "EMPTY",
			"message": "Paste a message first.",
		})
		return
	}
	text = clip(text, maxPasteLength)

	ex, err := a.Extractor.Extract(r.Context(), text)
	if err != nil {
		code := assist.Code(err)
		slog.Warn("Extraction failed", "code", code, "error", err)
		switch code {
		case assist.ErrRateLimited:
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"code":    string(code),
				"message": "The assistant is busy. Wait a minute and try again, or fill the form by hand.",
			})
		default:
			writeJSON(w, http.StatusBadGateway, map[string]string{
				"code":    string(assist.ErrAIFailed),
				"message": "The assistant could not read that message. Fill the form by hand.",
			})
		}
		return
	}

	resp := map[string]any{
		"fields": ex,
		"filled": ex.Filled(),
	}
	// the page follows this to show the catalog matches for the title
	if ex.BookTitle != "" {
		resp["search"] = "/?" + url.Values{"q": {ex.BookTitle}}.Encode()
	}
	writeJSON(w, http.StatusOK, resp)
}

// clip cuts s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
