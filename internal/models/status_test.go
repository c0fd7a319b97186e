package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestStatusRing(t *testing.T) {
	require.Equal(t, StatusInProgress, StatusIntake.Next())
	require.Equal(t, StatusReady, StatusInProgress.Next())
	require.Equal(t, StatusDone, StatusReady.Next())
	require.Equal(t, StatusIntake, StatusDone.Next())
}

func TestStatusUnknownFallsBackToIntake(t *testing.T) {
	require.Equal(t, 0, Status("gris").Index())
	require.Equal(t, StatusInProgress, Status("").Next())
}

func TestStatusPrintable(t *testing.T) {
	require.False(t, StatusIntake.Printable())
	require.False(t, StatusInProgress.Printable())
	require.True(t, StatusReady.Printable())
	require.True(t, StatusDone.Printable())
}

func TestBookSearchText(t *testing.T) {
	b := Book{
		ID:         "abc123",
		Title:      "Matemática 3",
		Publisher:  "Santillana",
		PriceMono:  decimal.NewFromInt(7000),
		PriceColor: decimal.NewFromInt(10000),
		Waitlist:   true,
	}
	require.Equal(t, "matemática 3 santillana abc123 waitlist 7000 10000", b.SearchText())
}
