package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	location := time.FixedZone("CEST", 2*60*60)
	testCases := []struct {
		text     string
		expected time.Time
	}{
		{text: "2019-08-01T09:15:00Z", expected: time.Date(2019, time.August, 1, 9, 15, 0, 0, time.UTC)},
		{text: "2019-08-01T09:15", expected: time.Date(2019, time.August, 1, 9, 15, 0, 0, location)},
		{text: "2019-08-01 09:15", expected: time.Date(2019, time.August, 1, 9, 15, 0, 0, location)},
		{text: "2019-08-01 09", expected: time.Date(2019, time.August, 1, 9, 0, 0, 0, location)},
		{text: " 2019-08-01 ", expected: time.Date(2019, time.August, 1, 0, 0, 0, 0, location)},
	}
	for _, test := range testCases {
		parsed, err := ParseTime(test.text, location)
		require.NoError(t, err, test.text)
		require.True(t, test.expected.Equal(parsed), "%s: %s", test.text, parsed)
	}

	_, err := ParseTime("yesterday", location)
	require.Error(t, err)
}

func TestNewTable(t *testing.T) {
	var out bytes.Buffer
	tbl := NewTable(&out)
	tbl.AppendHeader(table.Row{"flight", "price"})
	tbl.AppendRow(table.Row{"X1", 1500})
	tbl.Render()
	require.Contains(t, out.String(), "X1")
	require.Contains(t, out.String(), "1500")
}
