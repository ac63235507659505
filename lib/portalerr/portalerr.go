// Package portalerr classifies the failures of a sync run.
package portalerr

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication means the portal rejected the credentials.
	ErrAuthentication = errors.New("authentication rejected")

	// ErrUnexpectedResponse means the portal answered with a page we do not
	// know how to read, usually a layout change or a maintenance page.
	ErrUnexpectedResponse = errors.New("unexpected portal response")

	ErrParameterResolution = errors.New("could not resolve declaration form parameters")
	ErrExtraction          = errors.New("could not extract declaration")
	ErrTransport           = errors.New("transport failure")
)

// Phase is the step of the run an error happened in.
type Phase string

const (
	PhaseLogin   Phase = "login"
	PhaseParams  Phase = "params"
	PhaseIndex   Phase = "index"
	PhaseFetch   Phase = "fetch"
	PhaseExtract Phase = "extract"
	PhaseRender  Phase = "render"
	PhasePersist Phase = "persist"
)

// Error tags a failure with its kind (one of the sentinels above), the phase
// it happened in and the period being processed, if any.
type Error struct {
	Kind   error
	Phase  Phase
	Period string
	Err    error
}

func New(kind error, phase Phase, period string, err error) *Error {
	return &Error{Kind: kind, Phase: phase, Period: period, Err: err}
}

func (e *Error) Error() string {
	msg := string(e.Phase)
	if e.Period != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Period)
	}
	if e.Kind != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Kind.Error())
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Wrap tags `err` with `phase` and `period` while keeping the kind of an
// already classified error, unclassified errors get `fallback` as their kind.
func Wrap(err error, fallback error, phase Phase, period string) *Error {
	var existing *Error
	if errors.As(err, &existing) {
		kind := existing.Kind
		if kind == nil {
			kind = fallback
		}
		return &Error{Kind: kind, Phase: phase, Period: period, Err: existing.Err}
	}
	for _, sentinel := range []error{
		ErrAuthentication,
		ErrUnexpectedResponse,
		ErrParameterResolution,
		ErrExtraction,
		ErrTransport,
	} {
		if errors.Is(err, sentinel) {
			return &Error{Kind: sentinel, Phase: phase, Period: period, Err: err}
		}
	}
	return &Error{Kind: fallback, Phase: phase, Period: period, Err: err}
}
