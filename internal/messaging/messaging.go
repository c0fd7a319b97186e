// Package messaging builds outbound chat deep links and the canned texts the
// shop sends to customers.
package messaging

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// CountryPrefix is prepended to local mobile numbers (Argentina, mobile).
const CountryPrefix = "549"

const baseURL = "https://wa.me/"

// PaymentAlias is quoted in stock quotes so the customer can transfer the deposit.
var PaymentAlias = "INFOTECH.CBA"

// Link returns the deep link that opens a chat with phone prefilled with text.
// phone is reduced with LocalPhone first. It returns "" when no digits remain.
func Link(phone, text string) string {
	digits := LocalPhone(phone)
	if digits == "" {
		return ""
	}
	// spaces go out as %20, never "+"
	return baseURL + CountryPrefix + digits + "?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

// Digits keeps only 0-9.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LocalPhone strips everything but digits, then the 549/54 international
// prefix and a trunk 0.
func LocalPhone(s string) string {
	d := Digits(s)
	switch {
	case strings.HasPrefix(d, CountryPrefix):
		d = d[len(CountryPrefix):]
	case strings.HasPrefix(d, "54"):
		d = d[2:]
	}
	return strings.TrimPrefix(d, "0")
}

func money(d decimal.Decimal) string {
	return "$" + d.String()
}

// StockQuote answers a customer asking for a book the shop has in stock.
func StockQuote(title string, price, deposit decimal.Decimal) string {
	return fmt.Sprintf("¡Hola! Lo tenemos. El libro *%s* sale %s. Para encargarlo, señalo con %s (Alias: %s). Pasame comprobante, nombre de alumno y cole. ¡Gracias!",
		title, money(price), money(deposit), PaymentAlias)
}

// WaitlistNotice answers a customer asking for a book that is not in stock.
func WaitlistNotice(title string) string {
	return fmt.Sprintf("¡Hola! Por ahora no tenemos *%s*, pero te anoto en lista de espera. Si llegamos a 10 interesados, lo conseguimos y te aviso por acá. ¡Saludos!", title)
}

// OrderConfirmation confirms a single order.
func OrderConfirmation(customer, title, recipient, tracking string, balance decimal.Decimal) string {
	msg := fmt.Sprintf("¡Hola %s! Tu pedido de *%s* para *%s* fue registrado. Código: *#%s*.", customer, title, recipient, tracking)
	if balance.IsPositive() {
		msg += " Saldo: " + money(balance) + "."
	}
	return msg
}

// BatchConfirmation confirms several copies taken in one intake.
func BatchConfirmation(customer, title string, copies int) string {
	return fmt.Sprintf("¡Hola %s! Tomamos tus %d pedidos de *%s*.", customer, copies, title)
}

// NowAvailable tells a waitlisted customer the book arrived.
func NowAvailable(title string) string {
	return "Hola! Te aviso que ya conseguimos el libro " + title
}
