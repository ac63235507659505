package declsync

import (
	"context"
	"errors"
	"fmt"

	"netentreprise-backend/lib/assert"
	"netentreprise-backend/lib/delivery"
	"netentreprise-backend/lib/scrapers/netentreprises"
	"netentreprise-backend/lib/syncstate"
	"netentreprise-backend/lib/telemetry"
)

const report_accounts_sync = "accounts.sync"

// Account is a set of portal credentials as found in config files.
type Account struct {
	// key of the account in the state store, defaults to the siret
	Name      string `json:"name"`
	Siret     string `json:"siret"`
	LastName  string `json:"last_name"`
	FirstName string `json:"first_name"`
	Password  string `json:"password"`
}

func (a Account) Key() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Siret
}

func (a Account) Credentials() netentreprises.Credentials {
	return netentreprises.Credentials{
		Siret:     a.Siret,
		LastName:  a.LastName,
		FirstName: a.FirstName,
		Password:  a.Password,
	}
}

// Runner syncs accounts one after the other and hands the resulting bills
// to a saver.
type Runner struct {
	Backend  syncstate.Backend
	// may be nil, bills are then only returned
	Saver    delivery.Saver
	Delivery delivery.Options

	// options of the client created for every run
	Client netentreprises.Options
	Tel    telemetry.API
}

type AccountResult struct {
	Account string
	Result  Result
	Err     error
}

// SyncAccount runs a sync of `account` with a fresh session. The bills
// obtained before a failure are still saved.
func (r Runner) SyncAccount(ctx context.Context, account Account) (Result, error) {
	assert.NotNil(r.Backend)
	assert.NotNil(r.Tel)

	tel := telemetry.NewScopedAPI(fmt.Sprintf("account[%s]", account.Key()), r.Tel)
	client, err := netentreprises.NewClient(r.Client, tel)
	if err != nil {
		return Result{}, err
	}

	result, runErr := Run(ctx, RunContext{
		Client: client,
		Store:  r.Backend.ForAccount(account.Key()),
		Tel:    tel,
	}, account.Credentials())
	if r.Saver == nil || len(result.Bills) == 0 {
		return result, runErr
	}

	saveErr := r.Saver.Save(ctx, result.Bills, r.Delivery)
	if saveErr != nil {
		tel.ReportBroken(report_accounts_sync, saveErr, result.RunID)
		saveErr = fmt.Errorf("save bills: %w", saveErr)
	}
	return result, errors.Join(runErr, saveErr)
}

// SyncAll syncs every account sequentially, a failing account does not stop
// the others.
func (r Runner) SyncAll(ctx context.Context, accounts []Account) []AccountResult {
	results := make([]AccountResult, 0, len(accounts))
	for _, account := range accounts {
		if ctx.Err() != nil {
			results = append(results, AccountResult{Account: account.Key(), Err: ctx.Err()})
			continue
		}
		result, err := r.SyncAccount(ctx, account)
		if err != nil {
			r.Tel.ReportBroken(report_accounts_sync, err, account.Key())
		}
		results = append(results, AccountResult{
			Account: account.Key(),
			Result:  result,
			Err:     err,
		})
	}
	return results
}
