// Package match handles the reconciliation command
package match

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"fjacquet/invoice-recon/cmd/common"
	"fjacquet/invoice-recon/cmd/root"
)

// Options holds the match command flags.
var Options common.MatchOptions

// Cmd represents the match command
var Cmd = &cobra.Command{
	Use:   "match [statement files or directories...]",
	Short: "Match statement transactions to invoices",
	Long: `Match MT940 and CAMT.053 statement transactions to the invoice files of a directory.

Invoice numbers are taken from the digits in each invoice filename and searched
as whole numbers in the transaction descriptions. Every transaction is reported
as matched, ambiguous or unmatched, followed by a summary of claimed and
unclaimed invoices. With --upload-dir an upload package is built from the
matched transactions and their invoice documents.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	Cmd.Flags().StringVarP(&Options.InvoiceDir, "invoices", "d", "", "Invoice directory (default: invoices.directory)")
	Cmd.Flags().StringVarP(&Options.Format, "format", "f", "", "Report format: text, csv or json (default: report.format)")
	Cmd.Flags().StringVarP(&Options.Output, "output", "o", "", "Report file (default: stdout)")
	Cmd.Flags().StringVarP(&Options.UploadDir, "upload-dir", "u", "", "Build an upload package in this directory")
	Cmd.Flags().StringSliceVarP(&Options.Keywords, "keyword", "k", nil, "Filter transactions by keyword (repeatable)")
	Cmd.Flags().StringVar(&Options.FilterMode, "filter-mode", "", "Keyword filter mode: include or exclude")
	Cmd.Flags().Bool("case-sensitive", false, "Match filter keywords case-sensitively (default: filter.case_sensitive)")
}

func runMatch(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("application not initialized")
	}
	opts := matchOptions(cmd, args)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	outcome, err := common.Reconcile(ctx, c, opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if outcome.Package != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), outcome.Package.Summary())
	}
	return nil
}

// matchOptions copies the bound flags for one run. --case-sensitive only
// overrides the configuration when given explicitly.
func matchOptions(cmd *cobra.Command, args []string) common.MatchOptions {
	opts := Options
	opts.Statements = args
	if cmd.Flags().Changed("case-sensitive") {
		if v, err := cmd.Flags().GetBool("case-sensitive"); err == nil {
			opts.CaseSensitive = &v
		}
	}
	return opts
}
