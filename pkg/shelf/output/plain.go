package output

import (
	"bytes"
	"text/tabwriter"
)

// PlainFormatter formats output as a simple space-aligned table.
// It produces plain text output suitable for scripting and piping.
// No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("ACTION\tSIZE\tSOURCE\tDESTINATION\n")); err != nil {
		return err
	}

	for _, row := range r.Rows {
		line := row.Action + "\t" + row.SizeHuman + "\t" + row.Source + "\t" + row.Destination + "\n"
		if _, err := tw.Write([]byte(line)); err != nil {
			return err
		}
	}

	return tw.Flush()
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
