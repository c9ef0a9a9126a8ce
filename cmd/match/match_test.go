package match

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/invoice-recon/cmd/common"
	"fjacquet/invoice-recon/cmd/root"
	"fjacquet/invoice-recon/internal/config"
	"fjacquet/invoice-recon/internal/container"
	"fjacquet/invoice-recon/internal/logging"
)

const statement = `:20:STARTUMS
:25:CH9300762011623852957
:28C:00001/1
:60F:C250201CHF0,00
:61:2502030203C300,00NTRFPAY-1//B1
:86:Invoice 00042 February
:62F:C250203CHF300,00
-
`

func setup(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	cfg, err := config.InitializeConfig()
	require.NoError(t, err)
	c, err := container.NewContainerWithLogger(cfg, logging.NewMockLogger())
	require.NoError(t, err)

	originalContainer, originalOptions := root.AppContainer, Options
	root.AppContainer = c
	Options = common.MatchOptions{}
	t.Cleanup(func() {
		root.AppContainer = originalContainer
		Options = originalOptions
	})

	stmt := filepath.Join(dir, "feb.sta")
	require.NoError(t, os.WriteFile(stmt, []byte(statement), 0600))
	invoices := filepath.Join(dir, "invoices")
	require.NoError(t, os.Mkdir(invoices, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(invoices, "invoice-42.pdf"), []byte("%PDF"), 0600))
	return stmt, invoices
}

func TestMatchCommand_Metadata(t *testing.T) {
	assert.Equal(t, "match [statement files or directories...]", Cmd.Use)
	assert.Contains(t, Cmd.Short, "Match statement transactions")
	assert.Contains(t, Cmd.Long, "MT940 and CAMT.053")
	assert.Contains(t, Cmd.Long, "--upload-dir")
	assert.NotNil(t, Cmd.RunE)

	for _, name := range []string{"invoices", "format", "output", "upload-dir", "keyword", "filter-mode", "case-sensitive"} {
		assert.NotNil(t, Cmd.Flags().Lookup(name), name)
	}
}

func TestMatchCommand_Run(t *testing.T) {
	stmt, invoices := setup(t)
	Options.InvoiceDir = invoices
	Options.Format = "csv"

	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	require.NoError(t, runMatch(cmd, []string{stmt}))

	assert.Contains(t, out.String(), "reference,booking_date,amount")
	assert.Contains(t, out.String(), "PAY-1,2025-02-03,300.00,CHF,matched,42")
}

func TestMatchCommand_RunWithUpload(t *testing.T) {
	stmt, invoices := setup(t)
	Options.InvoiceDir = invoices
	Options.UploadDir = filepath.Join(filepath.Dir(stmt), "upload")
	Options.Output = filepath.Join(filepath.Dir(stmt), "report.txt")

	var out, errOut bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	require.NoError(t, runMatch(cmd, []string{stmt}))

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Upload package ")
	assert.FileExists(t, Options.Output)
	entries, err := os.ReadDir(Options.UploadDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMatchOptions_CaseSensitive(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want *bool
	}{
		{name: "unset defers to configuration", args: nil, want: nil},
		{name: "explicit true", args: []string{"--case-sensitive"}, want: boolPtr(true)},
		{name: "explicit false", args: []string{"--case-sensitive=false"}, want: boolPtr(false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().Bool("case-sensitive", false, "")
			require.NoError(t, cmd.Flags().Parse(tt.args))

			opts := matchOptions(cmd, []string{"a.sta"})
			assert.Equal(t, []string{"a.sta"}, opts.Statements)
			assert.Equal(t, tt.want, opts.CaseSensitive)
		})
	}
}

func TestMatchCommand_CaseSensitiveFlagDefault(t *testing.T) {
	flag := Cmd.Flags().Lookup("case-sensitive")
	require.NotNil(t, flag)
	assert.Equal(t, "false", flag.DefValue)
	assert.False(t, flag.Changed)
}

func boolPtr(v bool) *bool { return &v }

func TestMatchCommand_NotInitialized(t *testing.T) {
	original := root.AppContainer
	root.AppContainer = nil
	defer func() { root.AppContainer = original }()

	err := runMatch(&cobra.Command{}, []string{"x.sta"})
	assert.EqualError(t, err, "application not initialized")
}
