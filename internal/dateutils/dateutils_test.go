package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseMT940Date(t *testing.T) {
	got, err := ParseMT940Date("240315")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 15), got)
	assert.Equal(t, "240315", FormatMT940Date(got))

	_, err = ParseMT940Date("241315")
	assert.Error(t, err)
}

func TestResolveEntryDate(t *testing.T) {
	tests := []struct {
		name      string
		valueDate time.Time
		mmdd      string
		want      time.Time
	}{
		{name: "same year", valueDate: day(2024, time.March, 15), mmdd: "0314", want: day(2024, time.March, 14)},
		{name: "booked in december, valued in january", valueDate: day(2024, time.January, 2), mmdd: "1231", want: day(2023, time.December, 31)},
		{name: "booked in january, valued in december", valueDate: day(2023, time.December, 30), mmdd: "0102", want: day(2024, time.January, 2)},
		{name: "leap day", valueDate: day(2024, time.March, 1), mmdd: "0229", want: day(2024, time.February, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveEntryDate(tt.valueDate, tt.mmdd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ResolveEntryDate(day(2024, time.March, 1), "1340")
	assert.Error(t, err)
}

func TestParseISODate(t *testing.T) {
	got, err := ParseISODate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 15), got)

	got, err = ParseISODate("2024-03-15T10:11:12+01:00")
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.March, 15), got)

	_, err = ParseISODate("15.03")
	assert.Error(t, err)
}
