package main

import (
	"fmt"
	"os"

	"fjacquet/invoice-recon/cmd/match"
	"fjacquet/invoice-recon/cmd/root"
	"fjacquet/invoice-recon/cmd/scan"
)

func init() {
	root.Init()
	root.Cmd.AddCommand(match.Cmd)
	root.Cmd.AddCommand(scan.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
