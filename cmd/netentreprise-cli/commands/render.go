package commands

import (
	"fmt"
	"os"

	"netentreprise-backend/lib/declaration"
	"netentreprise-backend/lib/delivery"
	"netentreprise-backend/lib/period"
	"netentreprise-backend/lib/serviceutil"
	"netentreprise-backend/lib/statement"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

var renderOutput *string

func init() {
	renderOutput = renderCmd.Flags().StringP("output", "o", "", "The file to write the statement to, defaults to the name of the period (ex. 2018-09.pdf).")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render <page.html> <period>",
	Short: "Extracts and renders a saved declaration page without connecting to the portal.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := period.Parse(args[1])
		if err != nil {
			serviceutil.Fatal("invalid period", err)
		}

		f, err := os.Open(args[0])
		if err != nil {
			serviceutil.Fatal("failed to open page", err)
		}
		defer f.Close()
		doc, err := goquery.NewDocumentFromReader(f)
		if err != nil {
			serviceutil.Fatal("failed to parse page", err)
		}

		bill, err := declaration.Extract(doc, id)
		if err != nil {
			serviceutil.Fatal("failed to extract declaration", err)
		}
		rendered, err := statement.Render(doc, id)
		if err != nil {
			serviceutil.Fatal("failed to render statement", err)
		}

		out := *renderOutput
		if out == "" {
			out = bill.Filename
		}
		err = os.WriteFile(out, rendered.PDF, 0644)
		if err != nil {
			serviceutil.Fatal("failed to write statement", err)
		}

		fmt.Printf(
			"%s: %s € due on %s -> %s (%d page(s))\n",
			id,
			delivery.FormatAmount(bill.Amount),
			bill.Date.Format("02/01/2006"),
			out,
			rendered.Pages,
		)
	},
}
