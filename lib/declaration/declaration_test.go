package declaration

import (
	"os"
	"strings"
	"testing"
	"time"

	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/portalerr"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func loadFixture(t testing.TB) *goquery.Document {
	f, err := os.Open("testdata/declaration.html")
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)
	return doc
}

func TestExtractFixture(t *testing.T) {
	bill, err := Extract(loadFixture(t), 1809)
	require.NoError(t, err)

	require.Equal(t, period.ID(1809), bill.Period)
	require.Equal(t, int64(219600), bill.Amount)
	require.Equal(t, time.Date(2018, time.October, 15, 0, 0, 0, 0, time.UTC), bill.Date)
	require.Equal(t, "2018-09.pdf", bill.Filename)
	require.Equal(t, Vendor, bill.Vendor)
	require.Empty(t, bill.Content)
}

func TestExtractQuarterlyFilename(t *testing.T) {
	bill, err := Extract(loadFixture(t), 1843)
	require.NoError(t, err)
	require.Equal(t, "2018-12.pdf", bill.Filename)
}

func TestExtractMissingNodes(t *testing.T) {
	cases := []struct {
		name string
		html string
	}{
		{name: "no amount", html: `<html><body></body></html>`},
		{
			name: "no date",
			html: `<table id="table-paiements-tldp"><tr><td class="cellule_droite_middle"><span id="libmtpai">10</span></td></tr></table>`,
		},
		{
			name: "unparseable amount",
			html: `<table id="table-paiements-tldp"><tr><td class="cellule_droite_middle"><span id="libmtpai">n/a</span></td></tr></table>`,
		},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(test.html))
			require.NoError(t, err)

			_, err = Extract(doc, 1809)
			require.ErrorIs(t, err, portalerr.ErrExtraction)
			var portalErr *portalerr.Error
			require.ErrorAs(t, err, &portalErr)
			require.Equal(t, "1809", portalErr.Period)
		})
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		text     string
		expected int64
	}{
		{"1 234", 123400},
		{"1 234,56", 123456},
		{" 1 234,5 ", 123450},
		{"1 234 €", 123400},
		{"1.234,00", 123400},
		{"0", 0},
		{"-12,30", -1230},
	}
	for _, c := range cases {
		cents, err := ParseAmount(c.text)
		require.NoError(t, err, c.text)
		require.Equal(t, c.expected, cents, c.text)
	}

	for _, text := range []string{"", "abc", "12,345", "1,2,3", ","} {
		_, err := ParseAmount(text)
		require.Error(t, err, text)
	}
}

func TestParseDate(t *testing.T) {
	date, err := ParseDate("Le 31/12/2018 à 23:59")
	require.NoError(t, err)
	require.Equal(t, time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC), date)

	for _, text := range []string{"Le 14/10", "Le 14-10-2018 à 10:32", "Le 32/10/2018 à 10:32"} {
		_, err := ParseDate(text)
		require.Error(t, err, text)
	}
}

func TestSummary(t *testing.T) {
	summary := Summary(loadFixture(t))
	require.Equal(t, []SummaryRow{
		{Label: "N° de compte", Value: "117 000001234"},
		{Label: "Période", Value: "Septembre 2018"},
		{Label: "Date d'exigibilité", Value: "31/10/2018"},
		{Label: "Déclaration effectuée", Value: "Le 14/10/2018 à 10:32"},
		{Label: "Référence", Value: "DECL-20181014-0042"},
	}, summary)
}

func TestPlainRowValueSpans(t *testing.T) {
	cases := []struct {
		name     string
		html     string
		expected []string
	}{
		{
			name:     "two spans in one cell",
			html:     `<td>Prestations</td><td><span class="text_grand_gras">3 000 €</span><span class="text_grand_gras">660 €</span></td>`,
			expected: []string{"3 000 €", "660 €"},
		},
		{
			name:     "one span among other text",
			html:     `<td>Prestations</td><td>Montant : <span class="text_grand_gras"> 3&nbsp;000  € </span></td>`,
			expected: []string{"3 000 €"},
		},
		{
			name:     "cells without spans",
			html:     `<td>Prestations</td><td>3 000 €</td><td></td><td>660 €</td>`,
			expected: []string{"3 000 €", "660 €"},
		},
		{
			name: "empty spans are skipped",
			html: `<td>Prestations</td><td><span class="text_grand_gras"> </span></td>`,
		},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table><tr>" + test.html + "</tr></table>"))
			require.NoError(t, err)

			row := ClassifyRow(doc.Find("tr").First())
			require.Equal(t, PlainRow, row.Kind)
			require.Equal(t, "Prestations", row.Key)
			require.Equal(t, test.expected, row.Values)
		})
	}
}

func TestDetailsClassification(t *testing.T) {
	details := Details(loadFixture(t))

	expected := []Row{
		{Kind: PlainRow, Key: "Chiffre d'affaires"},
		{Kind: PlainRow, Key: "Ventes de marchandises", Values: []string{"12 000 €"}},
		{Kind: PlainRow, Key: "Prestations de services BIC", Values: []string{"3 000 €", "660 €"}},
		{Kind: PlainRow, Key: "Prestations de services BNC", Values: []string{"8 000 €"}},
		{Kind: PlainRow, Key: "Recettes encaissées", Values: []string{"3 000 €", "660 €"}},
		{Kind: ContributionRow, Key: "Cotisations", Contributions: []Contribution{
			{Name: "Vente de marchandises", Base: "12 000 €", Rate: "12,30 %", Amount: "1 476 €"},
			{Name: "Prestations de services", Base: "3 000 €", Rate: "21,20 %", Amount: "636 €"},
			{Name: "Formation professionnelle", Base: "15 000 €", Amount: "84 €"},
		}},
		{Kind: PlainRow},
		{
			Kind: PaymentRow,
			Key:  "Paiement",
			Payments: []Payment{
				{
					Bank:      "BANQUE POPULAIRE RIVES DE PARIS",
					BIC:       "CCBPFRPPMTG",
					Reference: "FR76 1020 7000 0000 0000 0000 042",
					Status:    "Prélèvement programmé",
				},
				{
					Bank:      "CAISSE D'EPARGNE ILE DE FRANCE",
					BIC:       "CEPAFRPP751",
					Reference: "FR76 1751 5900 0000 0000 0000 017",
					Status:    "Prélèvement effectué",
				},
			},
			Totals: []string{"Montant total à payer", "", "2 196 €"},
		},
	}
	if diff := cmp.Diff(expected, details); diff != "" {
		t.Fatalf("unexpected rows (-want +got):\n%s", diff)
	}

	require.True(t, details[0].IsSection())
	require.True(t, details[6].IsEmpty())
	require.False(t, details[1].IsSection())
}

func TestLabeledMonth(t *testing.T) {
	year, month, ok := LabeledMonth(loadFixture(t))
	require.True(t, ok)
	require.Equal(t, 2018, year)
	require.Equal(t, 9, month)

	cases := []struct {
		value string
		year  int
		month int
		ok    bool
	}{
		{value: "Novembre 2018", year: 2018, month: 11, ok: true},
		{value: "décembre 2019", year: 2019, month: 12, ok: true},
		{value: "1er trimestre 2018"},
		{value: "Brumaire 2018"},
		{value: ""},
	}
	for _, c := range cases {
		html := `<table class="tableau_donnees_cons"><tr><td>Période</td><td><span class="text_grand_gras">` + c.value + `</span></td></tr></table>`
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		require.NoError(t, err)

		year, month, ok := LabeledMonth(doc)
		require.Equal(t, c.ok, ok, c.value)
		require.Equal(t, c.year, year, c.value)
		require.Equal(t, c.month, month, c.value)
	}
}
