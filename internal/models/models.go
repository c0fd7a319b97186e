package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Book struct {
	ID         string          `db:"id" json:"id"`
	Title      string          `db:"title" json:"title"`
	Publisher  string          `db:"publisher" json:"publisher"`
	Pages      int             `db:"pages" json:"pages"`
	PriceMono  decimal.Decimal `db:"price_mono" json:"price_mono"`
	PriceColor decimal.Decimal `db:"price_color" json:"price_color"`
	CoverURL   *string         `db:"cover_url" json:"cover_url,omitempty"` // nil when no cover was uploaded
	Waitlist   bool            `db:"waitlist" json:"waitlist"`             // true = not in stock
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// Cover returns the cover URL or "" when the book has none.
func (b Book) Cover() string {
	if b.CoverURL == nil {
		return ""
	}
	return *b.CoverURL
}

// StockTag is the literal tag searched alongside the book fields.
func (b Book) StockTag() string {
	if b.Waitlist {
		return "waitlist"
	}
	return "stock"
}

// SearchText is the lowercased haystack used by catalog search.
func (b Book) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		b.Title, b.Publisher, b.ID, b.StockTag(),
		b.PriceMono.String(), b.PriceColor.String(),
	}, " "))
}

type Customer struct {
	Name  string `db:"customer_name" json:"name"`
	Phone string `db:"customer_phone" json:"phone"`
}

type Detail struct {
	Recipient   string `db:"recipient" json:"recipient"`
	Institution string `db:"institution" json:"institution"`
	Grade       string `db:"grade" json:"grade"`
	BookTitle   string `db:"book_title" json:"book_title"`
	BookID      string `db:"book_id" json:"book_id,omitempty"`
}

type Order struct {
	ID           string          `db:"id" json:"id"`
	TrackingCode string          `db:"tracking_code" json:"tracking_code"`
	Customer     `json:"customer"`
	Referent     string          `db:"referent" json:"referent"` // recipient name, suffixed "(i)" on clones
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	Status       Status          `db:"status" json:"status"`
	Deposit      decimal.Decimal `db:"deposit" json:"deposit"`
	Total        decimal.Decimal `db:"total" json:"total"`
	Balance      decimal.Decimal `db:"balance" json:"balance"` // stored at creation, never recomputed
	Description  string          `db:"description" json:"description"`
	Detail       `json:"detail"`
}

// SearchText is the lowercased haystack used by the board keyword search.
func (o Order) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		o.TrackingCode, o.Customer.Name, o.Customer.Phone, o.Referent,
		o.Detail.Institution, o.Detail.Grade, o.Description, string(o.Status),
	}, " "))
}

// Paid reports whether nothing is left to collect.
func (o Order) Paid() bool {
	return !o.Balance.IsPositive()
}

type WaitlistLead struct {
	ID        string    `db:"id" json:"id"`
	BookID    string    `db:"book_id" json:"book_id"`
	BookTitle string    `db:"book_title" json:"book_title"`
	Name      string    `db:"name" json:"name"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type User struct {
	ID       int    `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"` // Store hashed password
}
