package commands

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"netentreprise-backend/lib/delivery"
	"netentreprise-backend/lib/restyutil"
	"netentreprise-backend/lib/scrapers/netentreprises"
	"netentreprise-backend/lib/serviceutil"
	"netentreprise-backend/lib/syncstate"
	"netentreprise-backend/lib/telemetry"
	"netentreprise-backend/services/declsync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var syncDryRun *bool

func init() {
	syncDryRun = syncCmd.Flags().Bool("dry-run", false, "Sync without handing the statements to the configured destinations.")
	rootCmd.AddCommand(syncCmd)
}

// selectAccounts keeps the accounts named in `keys`, every account when
// `keys` is empty.
func selectAccounts(accounts []declsync.Account, keys []string) ([]declsync.Account, error) {
	if len(keys) == 0 {
		return accounts, nil
	}
	var out []declsync.Account
	for _, key := range keys {
		idx := slices.IndexFunc(accounts, func(a declsync.Account) bool {
			return a.Key() == key
		})
		if idx < 0 {
			return nil, fmt.Errorf("unknown account '%s'", key)
		}
		out = append(out, accounts[idx])
	}
	return out, nil
}

var syncCmd = &cobra.Command{
	Use:   "sync [account...]",
	Short: "Syncs the declarations of the configured accounts that are newer than their cursor.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := readConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		accounts, err := selectAccounts(cfg.Accounts, args)
		if err != nil {
			serviceutil.Fatal("failed to select accounts", err)
		}

		backend, err := syncstate.Open(cmd.Context(), cfg.State)
		if err != nil {
			serviceutil.Fatal("failed to open state", err)
		}
		defer backend.Close()

		tel := telemetry.NewSlogAPI()
		runner := declsync.Runner{
			Backend:  backend,
			Delivery: cfg.Delivery.Options(),
			Client: netentreprises.Options{
				RequestsPerSecond: cfg.RequestsPerSecond,
			},
			Tel: tel,
		}
		if !*syncDryRun {
			savers, err := cfg.Delivery.Savers(tel)
			if err != nil {
				serviceutil.Fatal("failed to setup delivery", err)
			}
			runner.Saver = savers
		}
		if verbose {
			output, err := restyutil.NewFilesystemOutput("<dev_state>/resty/netentreprises")
			if err != nil {
				serviceutil.Fatal("failed to setup http dumps", err)
			}
			slog.Debug("dumping http exchanges", "dir", output.Directory())
			runner.Client.Dump = output
		}

		start := time.Now()
		results := runner.SyncAll(cmd.Context(), accounts)
		slog.Info("sync time", "seconds", time.Since(start).Seconds())

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Account", "Run", "Period", "Date", "Amount", "File", "Error"})

		failed := false
		for _, res := range results {
			errText := ""
			if res.Err != nil {
				failed = true
				errText = res.Err.Error()
			}
			if len(res.Result.Bills) == 0 {
				t.AppendRow(table.Row{res.Account, res.Result.RunID, "-", "-", "-", "-", errText})
				continue
			}
			for i, bill := range res.Result.Bills {
				rowErr := ""
				if i == len(res.Result.Bills)-1 {
					rowErr = errText
				}
				t.AppendRow(table.Row{
					res.Account,
					res.Result.RunID,
					bill.Period.String(),
					bill.Date.Format("02/01/2006"),
					delivery.FormatAmount(bill.Amount) + " €",
					bill.Filename,
					rowErr,
				})
			}
		}

		t.SetStyle(table.StyleRounded)
		t.Render()

		if failed {
			os.Exit(1)
		}
	},
}
