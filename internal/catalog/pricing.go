package catalog

import (
	"github.com/shopspring/decimal"
	"github.com/wontivero/infotechLibros/internal/models"
)

var (
	BindingPrice   = decimal.NewFromInt(2000)
	MonoPagePrice  = decimal.NewFromInt(50)
	ColorPagePrice = decimal.NewFromInt(80)

	depositShare = decimal.NewFromFloat(0.5)
	hundred      = decimal.NewFromInt(100)
)

// SuggestedDeposit is half the color price rounded up to the next hundred.
func SuggestedDeposit(colorPrice decimal.Decimal) decimal.Decimal {
	return colorPrice.Mul(depositShare).Div(hundred).Ceil().Mul(hundred)
}

// PagePrices returns the mono and color list prices for a book of n pages.
func PagePrices(pages int) (mono, color decimal.Decimal) {
	n := decimal.NewFromInt(int64(pages))
	mono = n.Mul(MonoPagePrice).Add(BindingPrice)
	color = n.Mul(ColorPagePrice).Add(BindingPrice)
	return mono, color
}

// Prefill is what "load into form" copies from a book to the intake form.
type Prefill struct {
	BookTitle string
	BookID    string
	Total     decimal.Decimal
	Deposit   decimal.Decimal
}

func LoadIntoForm(b models.Book) Prefill {
	return Prefill{
		BookTitle: b.Title,
		BookID:    b.ID,
		Total:     b.PriceColor,
		Deposit:   SuggestedDeposit(b.PriceColor),
	}
}
