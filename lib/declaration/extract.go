// Package declaration reads the consultation page of a declaration.
package declaration

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"netentreprise-backend/lib/htmlutil"
	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/portalerr"

	"github.com/PuerkitoBio/goquery"
)

const Vendor = "urssaf"

const (
	amountSelector = "#table-paiements-tldp .cellule_droite_middle span#libmtpai"
	dateSelector   = ".tableau_donnees_cons .cellule_droite_middle span.text_grand_gras"
	// the date of the declaration is the fourth bold value of the page,
	// written as "Le dd/mm/yyyy à hh:mm"
	dateOccurrence = 3
)

// Bill is the normalized record of a declaration.
type Bill struct {
	Period period.ID
	// in cents
	Amount   int64
	Date     time.Time
	Vendor   string
	Filename string
	// the rendered statement, empty until rendered
	Content []byte
}

func Extract(doc *goquery.Document, p period.ID) (Bill, error) {
	fail := func(err error) (Bill, error) {
		return Bill{}, portalerr.New(portalerr.ErrExtraction, portalerr.PhaseExtract, p.String(), err)
	}

	decoded, err := period.Decode(p)
	if err != nil {
		return fail(err)
	}

	amountNode := doc.Find(amountSelector).First()
	if amountNode.Length() == 0 {
		return fail(fmt.Errorf("could not find %s", amountSelector))
	}
	amount, err := ParseAmount(amountNode.Text())
	if err != nil {
		return fail(err)
	}

	dateNodes := doc.Find(dateSelector)
	if dateNodes.Length() <= dateOccurrence {
		return fail(fmt.Errorf("expected more than %d date candidates, got %d", dateOccurrence, dateNodes.Length()))
	}
	date, err := ParseDate(dateNodes.Eq(dateOccurrence).Text())
	if err != nil {
		return fail(err)
	}

	return Bill{
		Period:   p,
		Amount:   amount,
		Date:     date,
		Vendor:   Vendor,
		Filename: decoded.Filename(),
	}, nil
}

var amountReplacer = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	".", "",
	"€", "",
)

// ParseAmount reads an amount like "1 234,56" into cents.
func ParseAmount(text string) (int64, error) {
	cleaned := amountReplacer.Replace(htmlutil.CollapseWhitespace(text))
	negative := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")

	units, fraction, _ := strings.Cut(cleaned, ",")
	if units == "" || !isDigits(units) || !isDigits(fraction) || len(fraction) > 2 {
		return 0, fmt.Errorf("invalid amount %q", text)
	}
	for len(fraction) < 2 {
		fraction += "0"
	}

	cents, err := strconv.ParseInt(units+fraction, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", text, err)
	}
	if negative {
		cents = -cents
	}
	return cents, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseDate reads the "dd/mm/yyyy" that follows the 3 character prefix of
// `text` ("Le "), the result is the day after that date, at midnight UTC.
func ParseDate(text string) (time.Time, error) {
	runes := []rune(htmlutil.CollapseWhitespace(text))
	if len(runes) < 13 {
		return time.Time{}, fmt.Errorf("date text too short: %q", text)
	}
	parts := strings.Split(strings.TrimSpace(string(runes[3:13])), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("invalid date %q", text)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day in %q: %w", text, err)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month in %q: %w", text, err)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year in %q: %w", text, err)
	}
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid date %q", text)
	}

	return time.Date(year, time.Month(month), day+1, 0, 0, 0, 0, time.UTC), nil
}
