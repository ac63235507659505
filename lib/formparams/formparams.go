// Package formparams holds the serialized menu form of the declaration service,
// the set of hidden parameters every later request has to echo back.
package formparams

import (
	"net/url"

	"netentreprise-backend/lib/htmlutil"
	"netentreprise-backend/lib/period"
)

// FormParams is immutable, every With* method returns a copy.
type FormParams struct {
	fields []htmlutil.Field
}

func New(fields []htmlutil.Field) FormParams {
	copied := make([]htmlutil.Field, len(fields))
	copy(copied, fields)
	return FormParams{fields: copied}
}

func (p FormParams) Len() int {
	return len(p.fields)
}

func (p FormParams) Fields() []htmlutil.Field {
	copied := make([]htmlutil.Field, len(p.fields))
	copy(copied, p.fields)
	return copied
}

// Get returns the value of the first field named `name`.
func (p FormParams) Get(name string) (string, bool) {
	for _, f := range p.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// With sets `name` to `value`, dropping any other field of the same name.
func (p FormParams) With(name, value string) FormParams {
	out := make([]htmlutil.Field, 0, len(p.fields)+1)
	replaced := false
	for _, f := range p.fields {
		if f.Name != name {
			out = append(out, f)
			continue
		}
		if !replaced {
			out = append(out, htmlutil.Field{Name: name, Value: value})
			replaced = true
		}
	}
	if !replaced {
		out = append(out, htmlutil.Field{Name: name, Value: value})
	}
	return FormParams{fields: out}
}

const (
	FieldPaymentCode = "codepaye"
	FieldDeadline    = "echeance"
	FieldExisting    = "listexi"
	FieldPaymentAuth = "habpai"
	FieldDeclareAuth = "habdev"
	FieldPeriod      = "periode"
)

// WithBusinessDefaults is the overlay sent with every listing and
// consultation request.
func (p FormParams) WithBusinessDefaults() FormParams {
	return p.
		With(FieldPaymentCode, "10").
		With(FieldDeadline, "44").
		With(FieldExisting, "").
		With(FieldPaymentAuth, "N").
		With(FieldDeclareAuth, "N")
}

// ForPeriod is the overlay that selects the declaration of period `id`.
func (p FormParams) ForPeriod(id period.ID) FormParams {
	return p.WithBusinessDefaults().With(FieldPeriod, id.String())
}

func (p FormParams) Values() url.Values {
	values := url.Values{}
	for _, f := range p.fields {
		values.Add(f.Name, f.Value)
	}
	return values
}
