package commands

import (
	"context"
	"fmt"
	"os"

	"netentreprise-backend/lib/configutil"
	configlibsql "netentreprise-backend/lib/configutil/libsql"
	"netentreprise-backend/lib/delivery"
	"netentreprise-backend/lib/telemetry"
	"netentreprise-backend/services/declsync"

	"github.com/spf13/cobra"
)

type Config struct {
	Accounts []declsync.Account  `json:"accounts"`
	// where the cursor of each account is kept
	State    configlibsql.Struct `json:"state"`
	Delivery delivery.Config     `json:"delivery"`

	// defaults to 2
	RequestsPerSecond float64 `json:"requests_per_second"`
}

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json5", "The config file to read accounts and destinations from.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging and dump every http exchange to <dev_state>/resty.")
}

var rootCmd = &cobra.Command{
	Use:   "netentreprise-cli",
	Short: "netentreprise-cli syncs URSSAF declarations from net-entreprises.fr and renders them as PDF statements.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func readConfig() (Config, error) {
	return configutil.ReadConfig[Config](configPath)
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
