// Package period decodes the declaration period identifiers used by the
// micro-social declaration service.
//
// An identifier is the 2-digit year followed by a 2-digit code. A code whose
// tens digit is 1..4 and units digit is 1..3 names a month inside a quarter
// (21 is the first month of the second quarter), otherwise a code in 1..12
// names a calendar month.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalid = errors.New("invalid period")

// ID is the raw identifier, ex. 1809 or 1821.
type ID int

func (p ID) String() string {
	return fmt.Sprintf("%04d", int(p))
}

// Parse reads an identifier as it appears in the portal's links.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	p := ID(n)
	_, err = Decode(p)
	if err != nil {
		return 0, err
	}
	return p, nil
}

type Period struct {
	Year  int
	Month int
	// Quarter and MonthInQuarter are 0 for monthly periods.
	Quarter        int
	MonthInQuarter int
	Quarterly      bool
}

func Decode(p ID) (Period, error) {
	if p < 0 || p > 9999 {
		return Period{}, fmt.Errorf("%w: %d", ErrInvalid, int(p))
	}
	year := 2000 + int(p)/100
	code := int(p) % 100

	quarter := code / 10
	monthInQuarter := code % 10
	if quarter >= 1 && quarter <= 4 && monthInQuarter >= 1 && monthInQuarter <= 3 {
		return Period{
			Year:           year,
			Month:          (quarter-1)*3 + monthInQuarter,
			Quarter:        quarter,
			MonthInQuarter: monthInQuarter,
			Quarterly:      true,
		}, nil
	}
	if code >= 1 && code <= 12 {
		return Period{Year: year, Month: code}, nil
	}
	return Period{}, fmt.Errorf("%w: %s", ErrInvalid, p)
}

func Encode(p Period) (ID, error) {
	if p.Year < 2000 || p.Year > 2099 {
		return 0, fmt.Errorf("%w: year %d", ErrInvalid, p.Year)
	}
	code := p.Month
	if p.Quarterly {
		code = p.Quarter*10 + p.MonthInQuarter
	}
	id := ID((p.Year-2000)*100 + code)
	decoded, err := Decode(id)
	if err != nil {
		return 0, err
	}
	if decoded != p {
		return 0, fmt.Errorf("%w: %+v is not representable", ErrInvalid, p)
	}
	return id, nil
}

// Filename is the name of the statement of the period, ex. "2018-09.pdf".
func (p Period) Filename() string {
	return fmt.Sprintf("%04d-%02d.pdf", p.Year, p.Month)
}

func (p Period) String() string {
	if p.Quarterly {
		return fmt.Sprintf("%04d-%02d (T%d)", p.Year, p.Month, p.Quarter)
	}
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
