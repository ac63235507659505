package declaration

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const periodLabel = "période"

var monthNames = map[string]int{
	"janvier":   1,
	"février":   2,
	"fevrier":   2,
	"mars":      3,
	"avril":     4,
	"mai":       5,
	"juin":      6,
	"juillet":   7,
	"août":      8,
	"aout":      8,
	"septembre": 9,
	"octobre":   10,
	"novembre":  11,
	"décembre":  12,
	"decembre":  12,
}

// LabeledMonth reads the "Période" row of the summary table when it names a
// month, ex. "Septembre 2018". Quarters and unknown layouts give ok == false.
func LabeledMonth(doc *goquery.Document) (year, month int, ok bool) {
	for _, row := range Summary(doc) {
		if strings.ToLower(row.Label) != periodLabel {
			continue
		}
		fields := strings.Fields(strings.ToLower(row.Value))
		if len(fields) != 2 {
			return 0, 0, false
		}
		month, known := monthNames[fields[0]]
		if !known {
			return 0, 0, false
		}
		year, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, 0, false
		}
		return year, month, true
	}
	return 0, 0, false
}
