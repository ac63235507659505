// Package statement renders the consultation page of a declaration as a PDF
// document laid out like the page.
package statement

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"netentreprise-backend/lib/declaration"
	"netentreprise-backend/lib/htmlutil"
	"netentreprise-backend/lib/period"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pdf/fpdf"
)

//go:embed assets/logo.png
var logoPNG []byte

const (
	HeaderText = "Généré automatiquement par le connecteur net-entreprises depuis la page de consultation"

	TitleQuarterly = "Déclaration Trimestrielle de Recettes"
	TitleMonthly   = "Déclaration Mensuelle de Recettes"
)

// column widths in mm, the content width of an A4 page with 15mm margins is 180
var (
	summaryColumns      = [2]float64{80, 100}
	detailColumns       = [3]float64{70, 55, 55}
	contributionColumns = [4]float64{42, 28, 55, 55}
)

// Shape names how a detail row was laid out.
type Shape string

const (
	ShapeSection   Shape = "section"
	ShapeValue     Shape = "value"
	ShapeValues    Shape = "values"
	ShapeBreakdown Shape = "breakdown"
	ShapePayment   Shape = "payment"
	ShapeTotals    Shape = "totals"
)

type Statement struct {
	PDF   []byte
	Pages int
	// rows drawn in each table, empty rows are not drawn
	SummaryRows int
	DetailRows  int
	// what was drawn for the detail rows in order, a payment row gives one
	// shape per line
	Shapes []Shape
}

func Title(p period.Period) string {
	if p.Quarterly {
		return TitleQuarterly
	}
	return TitleMonthly
}

func Render(doc *goquery.Document, p period.ID) (Statement, error) {
	decoded, err := period.Decode(p)
	if err != nil {
		return Statement{}, err
	}
	title := Title(decoded)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 15)
	pdf.SetTitle(title, true)
	pdf.SetCreator("netentreprise-backend", true)
	pdf.SetCreationDate(time.Date(decoded.Year, time.Month(decoded.Month), 1, 0, 0, 0, 0, time.UTC))
	pdf.SetCatalogSort(true)
	pdf.AliasNbPages("")

	l := newLayout(pdf)
	pdf.SetFooterFunc(func() {
		pdf.SetXY(l.left, l.pageH-10)
		l.setFont(false, 8)
		pdf.CellFormat(l.width, 5, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	l.setFont(true, 12)
	for _, line := range l.wrap(HeaderText, l.width) {
		pdf.CellFormat(l.width, 6, line, "", 1, "L", false, 0, "")
	}
	l.gap(5)

	err = banner(l, title)
	if err != nil {
		return Statement{}, err
	}

	statement := Statement{}
	for _, row := range declaration.Summary(doc) {
		l.row([]cell{
			{width: summaryColumns[0], text: row.Label, align: "L", fill: true},
			{width: summaryColumns[1], text: row.Value, align: "L"},
		}, padding)
		statement.SummaryRows++
	}
	l.gap(6)

	for _, row := range declaration.Details(doc) {
		shapes := drawDetail(l, row)
		if len(shapes) > 0 {
			statement.DetailRows++
			statement.Shapes = append(statement.Shapes, shapes...)
		}
	}

	if err := pdf.Error(); err != nil {
		return Statement{}, fmt.Errorf("render %s: %w", p, err)
	}
	var out bytes.Buffer
	err = pdf.Output(&out)
	if err != nil {
		return Statement{}, fmt.Errorf("render %s: %w", p, err)
	}
	statement.PDF = out.Bytes()
	statement.Pages = pdf.PageCount()
	return statement, nil
}

func banner(l *layout, title string) error {
	pdf := l.pdf
	options := fpdf.ImageOptions{ImageType: "PNG"}
	info := pdf.RegisterImageOptionsReader("logo", options, bytes.NewReader(logoPNG))
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("register logo: %w", err)
	}

	logoW := 40.0
	logoH := logoW * info.Height() / info.Width()
	y := pdf.GetY()
	pdf.ImageOptions("logo", l.left, y, logoW, logoH, false, options, 0, "")

	l.setFont(true, 16)
	pdf.SetXY(l.left+logoW+5, y+(logoH-8)/2)
	pdf.CellFormat(l.width-logoW-5, 8, l.tr(title), "", 0, "L", false, 0, "")

	pdf.SetXY(l.left, y+logoH+8)
	return nil
}

// drawDetail draws a classified row and returns what it drew, nothing for an
// empty row.
func drawDetail(l *layout, row declaration.Row) []Shape {
	full := detailColumns[0] + detailColumns[1] + detailColumns[2]

	switch row.Kind {
	case declaration.ContributionRow:
		lines := make([][]cell, 0, len(row.Contributions))
		for _, c := range row.Contributions {
			lines = append(lines, []cell{
				contributionCell(contributionColumns[0], c.Name, "L"),
				contributionCell(contributionColumns[1], c.Base, "R"),
				contributionCell(contributionColumns[2], c.Rate, "C"),
				contributionCell(contributionColumns[3], c.Amount, "R"),
			})
		}
		l.breakdown(cell{width: detailColumns[0], text: row.Key, align: "L", bold: true}, lines, 2)
		return []Shape{ShapeBreakdown}

	case declaration.PaymentRow:
		var shapes []Shape
		if row.Key != "" {
			l.row([]cell{{width: full, text: row.Key, align: "L", bold: true}}, sectionPadding)
			shapes = append(shapes, ShapeSection)
		}
		for _, payment := range row.Payments {
			l.stacked(
				[]cell{
					{width: detailColumns[0], text: payment.Bank, align: "L", fill: true},
					{width: detailColumns[0], text: payment.BIC, align: "L", fill: true},
				},
				[]cell{
					{width: detailColumns[1], text: payment.Reference, align: "C"},
					{width: detailColumns[2], text: payment.Status, align: "R"},
				},
			)
			shapes = append(shapes, ShapePayment)
		}
		if len(row.Totals) > 0 {
			totals := make([]string, 3)
			copy(totals, row.Totals)
			l.row([]cell{
				{width: detailColumns[0], text: totals[0], align: "L", fill: true},
				{width: detailColumns[1], text: totals[1], align: "C"},
				{width: detailColumns[2], text: htmlutil.CollapseWhitespace(joinRest(row.Totals, 2)), align: "R"},
			}, padding)
			shapes = append(shapes, ShapeTotals)
		}
		return shapes
	}

	switch {
	case row.IsEmpty():
		return nil
	case row.IsSection():
		l.row([]cell{{width: full, text: row.Key, align: "L", bold: true}}, sectionPadding)
		return []Shape{ShapeSection}
	case len(row.Values) == 1:
		l.row([]cell{
			{width: detailColumns[0], text: row.Key, align: "L", fill: true},
			{width: detailColumns[1] + detailColumns[2], text: row.Values[0], align: "R"},
		}, padding)
		return []Shape{ShapeValue}
	default:
		l.row([]cell{
			{width: detailColumns[0], text: row.Key, align: "L", fill: true},
			{width: detailColumns[1], text: row.Values[0], align: "C"},
			{width: detailColumns[2], text: joinRest(row.Values, 1), align: "R"},
		}, padding)
		return []Shape{ShapeValues}
	}
}

func contributionCell(width float64, text, align string) cell {
	return cell{width: width, text: text, align: align, hidden: text == ""}
}

func joinRest(values []string, from int) string {
	if from >= len(values) {
		return ""
	}
	out := values[from]
	for _, v := range values[from+1:] {
		out += " " + v
	}
	return out
}
