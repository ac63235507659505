package commands

import (
	"os"

	"netentreprise-backend/lib/period"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(periodsCmd)
}

var periodsCmd = &cobra.Command{
	Use:   "periods <id>...",
	Short: "Decodes period identifiers as used by the portal (ex. 1809, 1813).",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Id", "Kind", "Period", "File", "Error"})

		for _, arg := range args {
			id, err := period.Parse(arg)
			if err != nil {
				t.AppendRow(table.Row{arg, "", "", "", err.Error()})
				continue
			}
			decoded, err := period.Decode(id)
			if err != nil {
				t.AppendRow(table.Row{arg, "", "", "", err.Error()})
				continue
			}
			kind := "monthly"
			if decoded.Quarterly {
				kind = "quarterly"
			}
			t.AppendRow(table.Row{id.String(), kind, decoded.String(), decoded.Filename(), ""})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
