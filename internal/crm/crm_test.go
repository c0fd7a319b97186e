package crm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wontivero/infotechLibros/internal/models"
)

func TestGroup(t *testing.T) {
	leads := []models.WaitlistLead{
		{Name: "Leo", Phone: "351", BookTitle: "Química"},
		{Name: "Ana", Phone: "352", BookTitle: "Física"},
		{Name: "Sol", Phone: "353", BookTitle: ""},
		{Name: "Eva", Phone: "354", BookTitle: "Química"},
	}

	groups := ByBook(leads)
	require.Len(t, groups, 3)
	require.Equal(t, "Química", groups[0].BookTitle)
	require.Equal(t, 2, groups[0].Count())
	require.Equal(t, "Leo", groups[0].Leads[0].Name)
	require.Equal(t, "Eva", groups[0].Leads[1].Name)
	require.Equal(t, "Física", groups[1].BookTitle)
	require.Equal(t, FallbackTitle, groups[2].BookTitle)

	require.Equal(t,
		"https://wa.me/549351?text=Hola%21%20Te%20aviso%20que%20ya%20conseguimos%20el%20libro%20Qu%C3%ADmica",
		groups[0].Leads[0].NotifyLink)
}

func TestGroupEmpty(t *testing.T) {
	require.Empty(t, ByBook(nil))
}
