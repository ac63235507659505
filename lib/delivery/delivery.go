// Package delivery hands the bills of a run over to where they are kept.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"netentreprise-backend/lib/declaration"
)

const (
	DefaultIdentifier  = "net-entreprise"
	DefaultContentType = "application/pdf"
)

type Options struct {
	// Identifiers name the source of the files, the first one is used as the
	// folder of the files.
	Identifiers []string
	ContentType string
}

func DefaultOptions() Options {
	return Options{
		Identifiers: []string{DefaultIdentifier},
		ContentType: DefaultContentType,
	}
}

func (o Options) folder() string {
	if len(o.Identifiers) == 0 {
		return DefaultIdentifier
	}
	return o.Identifiers[0]
}

func (o Options) contentType() string {
	if o.ContentType == "" {
		return DefaultContentType
	}
	return o.ContentType
}

type Saver interface {
	Save(ctx context.Context, bills []declaration.Bill, opts Options) error
}

// MultiSaver saves the bills with every saver, it does not stop at the first
// failure.
type MultiSaver []Saver

func (m MultiSaver) Save(ctx context.Context, bills []declaration.Bill, opts Options) error {
	var errs []error
	for _, saver := range m {
		err := saver.Save(ctx, bills, opts)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FormatAmount formats cents as euros, ex. 123456 -> "1234,56".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d,%02d", sign, cents/100, cents%100)
}
