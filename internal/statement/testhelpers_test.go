package statement

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"fjacquet/invoice-recon/internal/logging"
)

const sampleMT940 = `:20:STARTUMS
:25:NL91ABNA0417164300
:28C:00001/1
:60F:C250101EUR1000,00
:61:2501150115C1250,00NTRFINV-501//BANK1
:86:/TRTP/SEPA OVERBOEKING/IBAN/NL20INGB0001234567/NAME/ACME BV/REMI/
Payment invoice 501/EREF/INV-501
:61:2501160116D45,10NTRFNONREF//B2
:86:Card payment
coffee corner
:62F:C250116EUR2204,90
-
`

func newTestParser(opts Options) (*Parser, *logging.MockLogger) {
	logger := logging.NewMockLogger()
	return NewParser(opts, logger), logger
}

func openString(t *testing.T, p *Parser, content string) *Stream {
	t.Helper()
	stream, err := p.Open(strings.NewReader(content), "test.sta")
	require.NoError(t, err)
	return stream
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
