// Package scan handles the invoice inventory command
package scan

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fjacquet/invoice-recon/cmd/root"
)

// Cmd represents the scan command
var Cmd = &cobra.Command{
	Use:   "scan [invoice directory]",
	Short: "List the invoice numbers found in a directory",
	Long: `Scan an invoice directory and list the invoice number extracted from each
filename. Files without a number and files whose number is already taken by
an earlier file are flagged; they can never be chosen by a match.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	c := root.GetContainer()
	if c == nil {
		return fmt.Errorf("application not initialized")
	}
	dir := c.GetConfig().Invoices.Directory
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no invoice directory given")
	}

	invoices, warnings, err := c.GetScanner().Scan(dir)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tFILE\tSTATUS")
	for _, inv := range invoices {
		number, status := inv.Number, "ok"
		switch {
		case !inv.IsExtractable():
			number, status = "-", "no number"
		case inv.IsDuplicate():
			status = "duplicate of " + inv.DuplicateOf
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", number, inv.FileName, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d invoices, %d warnings\n", len(invoices), len(warnings))
	return nil
}
