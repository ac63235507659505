package period

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	cases := []struct {
		id       ID
		expected Period
		filename string
	}{
		{1809, Period{Year: 2018, Month: 9}, "2018-09.pdf"},
		{1810, Period{Year: 2018, Month: 10}, "2018-10.pdf"},
		{1801, Period{Year: 2018, Month: 1}, "2018-01.pdf"},
		{1821, Period{Year: 2018, Month: 4, Quarter: 2, MonthInQuarter: 1, Quarterly: true}, "2018-04.pdf"},
		{1843, Period{Year: 2018, Month: 12, Quarter: 4, MonthInQuarter: 3, Quarterly: true}, "2018-12.pdf"},
		{2311, Period{Year: 2023, Month: 1, Quarter: 1, MonthInQuarter: 1, Quarterly: true}, "2023-01.pdf"},
	}
	for _, c := range cases {
		decoded, err := Decode(c.id)
		require.NoError(t, err, c.id)
		require.Equal(t, c.expected, decoded, c.id)
		require.Equal(t, c.filename, decoded.Filename(), c.id)

		encoded, err := Encode(decoded)
		require.NoError(t, err)
		require.Equal(t, c.id, encoded)
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, id := range []ID{1800, 1814, 1824, 1850, 1899, 1840, -1, 10000} {
		_, err := Decode(id)
		require.ErrorIs(t, err, ErrInvalid, id)
	}
}

func TestEncodeUnrepresentable(t *testing.T) {
	// monthly november shares its code with the first month of Q1
	_, err := Encode(Period{Year: 2018, Month: 11})
	require.ErrorIs(t, err, ErrInvalid)
	_, err = Encode(Period{Year: 1999, Month: 1})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestParse(t *testing.T) {
	p, err := Parse(" 1821 ")
	require.NoError(t, err)
	require.Equal(t, ID(1821), p)
	require.Equal(t, "1821", p.String())

	_, err = Parse("18x1")
	require.ErrorIs(t, err, ErrInvalid)
	_, err = Parse("1899")
	require.ErrorIs(t, err, ErrInvalid)
}
