package orders

import (
	"bufio"
	"io"
	"strings"
	"time"

	"github.com/wontivero/infotechLibros/internal/models"
)

var csvHeader = []string{
	"date", "tracking", "status", "customer", "phone", "recipient",
	"institution", "grade", "description", "deposit", "total", "balance",
}

// ExportFilename names the download after the local date.
func ExportFilename(now time.Time, loc *time.Location) string {
	return "orders_" + now.In(loc).Format(time.DateOnly) + ".csv"
}

// WriteCSV writes orders in the given order. Free-text columns are always
// quoted; other columns only when they need it.
func WriteCSV(w io.Writer, orders []models.Order, loc *time.Location) error {
	if len(orders) == 0 {
		return ErrNoOrders
	}
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(csvHeader, ","))
	bw.WriteString("\n")

	for _, o := range orders {
		date := "-"
		if !o.CreatedAt.IsZero() {
			date = o.CreatedAt.In(loc).Format("02/01/2006")
		}
		row := []string{
			field(date),
			field(o.TrackingCode),
			field(string(o.Status)),
			quoted(o.Customer.Name),
			field(o.Customer.Phone),
			quoted(o.Referent),
			quoted(o.Detail.Institution),
			quoted(o.Detail.Grade),
			quoted(o.Description),
			o.Deposit.String(),
			o.Total.String(),
			o.Balance.String(),
		}
		bw.WriteString(strings.Join(row, ","))
		bw.WriteString("\n")
	}
	return bw.Flush()
}

func quoted(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func field(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quoted(s)
	}
	return s
}
