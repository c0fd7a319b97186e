package assist

import (
	"strings"

	"github.com/wontivero/infotechLibros/internal/messaging"
)

// minPhoneDigits is the point past which a "name" is really a phone number.
const minPhoneDigits = 6

// Normalize cleans up what the model returns. A name made only of digits
// and phone punctuation is moved to the phone field, and the phone is
// reduced to local digits.
func Normalize(ex Extraction) Extraction {
	ex.CustomerName = strings.TrimSpace(ex.CustomerName)
	ex.Recipient = strings.TrimSpace(ex.Recipient)
	ex.Institution = strings.TrimSpace(ex.Institution)
	ex.Grade = strings.TrimSpace(ex.Grade)
	ex.BookTitle = strings.TrimSpace(ex.BookTitle)

	if looksLikePhone(ex.CustomerName) {
		if ex.CustomerPhone == "" {
			ex.CustomerPhone = ex.CustomerName
		}
		ex.CustomerName = ""
	}
	ex.CustomerPhone = messaging.LocalPhone(ex.CustomerPhone)
	return ex
}

func looksLikePhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune(" +-().", r):
		default:
			return false
		}
	}
	return digits > minPhoneDigits
}

// Filled lists the form fields an extraction populated, so the page can
// highlight them.
func (ex Extraction) Filled() []string {
	fields := []struct {
		name, value string
	}{
		{"customer_name", ex.CustomerName},
		{"customer_phone", ex.CustomerPhone},
		{"recipient", ex.Recipient},
		{"institution", ex.Institution},
		{"grade", ex.Grade},
		{"book_title", ex.BookTitle},
	}
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.value != "" {
			out = append(out, f.name)
		}
	}
	return out
}
