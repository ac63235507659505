package formparams

import (
	"testing"

	"netentreprise-backend/lib/htmlutil"

	"github.com/stretchr/testify/require"
)

func TestOverlaysDoNotMutate(t *testing.T) {
	base := New([]htmlutil.Field{
		{Name: "siret", Value: "12345678900011"},
		{Name: "codepaye", Value: "99"},
		{Name: "codepaye", Value: "98"},
	})

	withDefaults := base.WithBusinessDefaults()
	forPeriod := base.ForPeriod(1821)

	require.Equal(t, 3, base.Len())
	value, _ := base.Get("codepaye")
	require.Equal(t, "99", value)
	_, ok := base.Get("periode")
	require.False(t, ok)

	require.Equal(t, []htmlutil.Field{
		{Name: "siret", Value: "12345678900011"},
		{Name: "codepaye", Value: "10"},
		{Name: "echeance", Value: "44"},
		{Name: "listexi", Value: ""},
		{Name: "habpai", Value: "N"},
		{Name: "habdev", Value: "N"},
	}, withDefaults.Fields())

	period, ok := forPeriod.Get("periode")
	require.True(t, ok)
	require.Equal(t, "1821", period)
	_, ok = withDefaults.Get("periode")
	require.False(t, ok)

	values := forPeriod.Values()
	require.Equal(t, []string{"10"}, values["codepaye"])
	require.Equal(t, "12345678900011", values.Get("siret"))
}

func TestNewCopiesInput(t *testing.T) {
	fields := []htmlutil.Field{{Name: "a", Value: "1"}}
	params := New(fields)
	fields[0].Value = "2"

	value, _ := params.Get("a")
	require.Equal(t, "1", value)

	out := params.Fields()
	out[0].Value = "3"
	value, _ = params.Get("a")
	require.Equal(t, "1", value)
}
