package commands

import (
	"os"
	"time"

	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/serviceutil"
	"netentreprise-backend/lib/syncstate"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	stateCmd.AddCommand(stateShowCmd, stateResetCmd, stateSetCmd)
	rootCmd.AddCommand(stateCmd)
}

func openState(cmd *cobra.Command) *syncstate.SQLBackend {
	cfg, err := readConfig()
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	backend, err := syncstate.Open(cmd.Context(), cfg.State)
	if err != nil {
		serviceutil.Fatal("failed to open state", err)
	}
	return backend
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspects and edits the cursor of each account.",
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the stored state of every account.",
	Run: func(cmd *cobra.Command, args []string) {
		backend := openState(cmd)
		defer backend.Close()

		accounts, err := backend.Accounts(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list accounts", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Account", "Last synced", "Period", "Updated at"})
		for _, account := range accounts {
			state, err := backend.ForAccount(account).Get(cmd.Context())
			if err != nil {
				serviceutil.Fatal("failed to read state", err)
			}
			if state.LastSyncedPeriod == nil {
				t.AppendRow(table.Row{account, "-", "-", state.UpdatedAt.Format(time.DateTime)})
				continue
			}
			described := "?"
			decoded, err := period.Decode(*state.LastSyncedPeriod)
			if err == nil {
				described = decoded.String()
			}
			t.AppendRow(table.Row{
				account,
				state.LastSyncedPeriod.String(),
				described,
				state.UpdatedAt.Format(time.DateTime),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

var stateResetCmd = &cobra.Command{
	Use:   "reset <account>",
	Short: "Forgets the cursor of an account, the next sync fetches every declaration again.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		backend := openState(cmd)
		defer backend.Close()

		err := backend.ForAccount(args[0]).Set(cmd.Context(), syncstate.State{
			UpdatedAt: time.Now(),
		}, syncstate.SetOptions{})
		if err != nil {
			serviceutil.Fatal("failed to reset state", err)
		}
	},
}

var stateSetCmd = &cobra.Command{
	Use:   "set <account> <period>",
	Short: "Moves the cursor of an account, only newer declarations are synced afterwards.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := period.Parse(args[1])
		if err != nil {
			serviceutil.Fatal("invalid period", err)
		}

		backend := openState(cmd)
		defer backend.Close()

		err = backend.ForAccount(args[0]).Set(cmd.Context(), syncstate.State{
			LastSyncedPeriod: syncstate.Cursor(id),
			UpdatedAt:        time.Now(),
		}, syncstate.SetOptions{Merge: true})
		if err != nil {
			serviceutil.Fatal("failed to set state", err)
		}
	},
}
