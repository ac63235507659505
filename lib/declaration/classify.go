package declaration

import (
	"netentreprise-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	dataTableSelector         = ".tableau_donnees_cons"
	contributionTableSelector = "table.tableau_cotisations"
	paymentTableSelector      = "table#table-paiements-tldp"
	valueSelector             = "span.text_grand_gras"
)

type RowKind int

const (
	PlainRow RowKind = iota
	ContributionRow
	PaymentRow
)

func (k RowKind) String() string {
	switch k {
	case ContributionRow:
		return "contribution"
	case PaymentRow:
		return "payment"
	default:
		return "plain"
	}
}

// Contribution is a line of the contributions sub-table, any field may be empty.
type Contribution struct {
	Name   string
	Base   string
	Rate   string
	Amount string
}

// Payment is a line of the payments sub-table.
type Payment struct {
	Bank      string
	BIC       string
	Reference string
	Status    string
}

// Row is a classified row of the detail table, only the fields of its kind
// are set.
type Row struct {
	Kind RowKind
	Key  string

	// PlainRow: the non-empty values after the key, one per value span
	Values []string

	// ContributionRow
	Contributions []Contribution

	// PaymentRow: every line but the last, the last line is Totals
	Payments []Payment
	Totals   []string
}

// IsSection is true for a plain row with a key and no value, rendered as a
// section header.
func (r Row) IsSection() bool {
	return r.Kind == PlainRow && r.Key != "" && len(r.Values) == 0
}

// IsEmpty is true for a plain row with neither key nor value.
func (r Row) IsEmpty() bool {
	return r.Kind == PlainRow && r.Key == "" && len(r.Values) == 0
}

// ClassifyRow decides what a row of the detail table holds, payment and
// contribution markers take precedence over the plain key/value layout.
func ClassifyRow(row *goquery.Selection) Row {
	cells := htmlutil.Cells(row)
	key := htmlutil.Text(cells.First())

	if table := row.Find(paymentTableSelector).First(); table.Length() > 0 {
		return classifyPayments(key, table)
	}
	if table := row.Find(contributionTableSelector).First(); table.Length() > 0 {
		return classifyContributions(key, table)
	}

	var values []string
	cells.Slice(1, goquery.ToEnd).Each(func(_ int, cell *goquery.Selection) {
		values = append(values, cellValues(cell)...)
	})
	return Row{Kind: PlainRow, Key: key, Values: values}
}

// cellValues returns each value span of a cell as its own value, the text of
// the cell when it has none.
func cellValues(cell *goquery.Selection) []string {
	var values []string
	spans := cell.Find(valueSelector)
	if spans.Length() == 0 {
		spans = cell
	}
	spans.Each(func(_ int, s *goquery.Selection) {
		if text := htmlutil.Text(s); text != "" {
			values = append(values, text)
		}
	})
	return values
}

func cellTexts(row *goquery.Selection, n int) []string {
	texts := make([]string, 0, n)
	htmlutil.Cells(row).Each(func(_ int, cell *goquery.Selection) {
		texts = append(texts, htmlutil.Text(cell))
	})
	for len(texts) < n {
		texts = append(texts, "")
	}
	return texts
}

func classifyContributions(key string, table *goquery.Selection) Row {
	var lines []Contribution
	htmlutil.Rows(table).Each(func(_ int, line *goquery.Selection) {
		texts := cellTexts(line, 4)
		lines = append(lines, Contribution{
			Name:   texts[0],
			Base:   texts[1],
			Rate:   texts[2],
			Amount: texts[3],
		})
	})
	return Row{Kind: ContributionRow, Key: key, Contributions: lines}
}

func classifyPayments(key string, table *goquery.Selection) Row {
	rows := htmlutil.Rows(table)
	out := Row{Kind: PaymentRow, Key: key}
	rows.Each(func(i int, line *goquery.Selection) {
		if i == rows.Length()-1 {
			htmlutil.Cells(line).Each(func(_ int, cell *goquery.Selection) {
				out.Totals = append(out.Totals, htmlutil.Text(cell))
			})
			return
		}
		texts := cellTexts(line, 4)
		out.Payments = append(out.Payments, Payment{
			Bank:      texts[0],
			BIC:       texts[1],
			Reference: texts[2],
			Status:    texts[3],
		})
	})
	return out
}

// SummaryRow is a row of the summary table.
type SummaryRow struct {
	Label string
	Value string
}

// Summary returns the rows of the first data table, the value of a row is its
// bold span when it has one.
func Summary(doc *goquery.Document) []SummaryRow {
	table := doc.Find(dataTableSelector).Eq(0)
	var out []SummaryRow
	htmlutil.Rows(table).Each(func(_ int, row *goquery.Selection) {
		cells := htmlutil.Cells(row)
		value := cells.Eq(1)
		if span := value.Find(valueSelector).First(); span.Length() > 0 {
			value = span
		}
		out = append(out, SummaryRow{
			Label: htmlutil.Text(cells.First()),
			Value: htmlutil.Text(value),
		})
	})
	return out
}

// Details classifies the rows of the second data table.
func Details(doc *goquery.Document) []Row {
	table := doc.Find(dataTableSelector).Eq(1)
	var out []Row
	htmlutil.Rows(table).Each(func(_ int, row *goquery.Selection) {
		out = append(out, ClassifyRow(row))
	})
	return out
}
