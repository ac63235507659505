// Package syncstate remembers, per account, the last declaration period that
// was synced so later runs only fetch what is new.
package syncstate

import (
	"context"
	"fmt"
	"time"

	"netentreprise-backend/lib/period"

	"dario.cat/mergo"
)

type State struct {
	LastSyncedPeriod *period.ID `json:"last_synced_period,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type SetOptions struct {
	// Merge keeps the fields of the stored state that are zero in the new one.
	Merge bool
}

// Store is the state of a single account.
type Store interface {
	Get(ctx context.Context) (State, error)
	Set(ctx context.Context, state State, opts SetOptions) error
}

type Backend interface {
	ForAccount(account string) Store
	// Accounts lists the accounts that have a stored state.
	Accounts(ctx context.Context) ([]string, error)
}

// apply returns the state that results from setting `update` over `current`.
func apply(current, update State, opts SetOptions) (State, error) {
	if !opts.Merge {
		return update, nil
	}
	merged := current
	err := mergo.Merge(&merged, update, mergo.WithOverride)
	if err != nil {
		return State{}, fmt.Errorf("merge state: %w", err)
	}
	return merged, nil
}

func Cursor(id period.ID) *period.ID {
	return &id
}
