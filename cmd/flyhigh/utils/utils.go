package utils

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02 15",
	time.DateOnly,
}

// ParseTime accepts an RFC 3339 timestamp or a shorter local form down to a date,
// everything but RFC 3339 is interpreted in `location`.
func ParseTime(text string, location *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, text, location)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", text)
}
