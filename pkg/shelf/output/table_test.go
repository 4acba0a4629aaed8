package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainFormatter_Format(t *testing.T) {
	formatter := &PlainFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	output := buf.String()
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	require.Len(t, lines, 4) // header + 3 rows

	assert.Contains(t, lines[0], "ACTION")
	assert.Contains(t, lines[0], "DESTINATION")
	assert.Contains(t, output, "report.pdf")
	assert.Contains(t, output, "moved")

	// No ANSI escapes in plain output.
	assert.NotContains(t, output, "\x1b[")
}

func TestTSVFormatter_Format(t *testing.T) {
	formatter := &TSVFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "ACTION\tSIZE\tSOURCE\tDESTINATION", lines[0])

	fields := strings.Split(lines[1], "\t")
	require.Len(t, fields, 4)
	assert.Equal(t, "moved", fields[0])
	assert.Equal(t, "1.0 MiB", fields[1])
	assert.Equal(t, "/home/user/Downloads/report.pdf", fields[2])
	assert.Equal(t, "/home/user/Sorted/PDF/report.pdf", fields[3])

	// Skipped row has an empty destination column.
	skipped := strings.Split(lines[3], "\t")
	require.Len(t, skipped, 4)
	assert.Equal(t, "skipped", skipped[0])
	assert.Empty(t, skipped[3])
}

func TestCSVFormatter_Format(t *testing.T) {
	formatter := &CSVFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	reader := csv.NewReader(&buf)
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"ACTION", "SIZE", "SOURCE", "DESTINATION"}, records[0])
	assert.Equal(t, "moved", records[1][0])
	assert.Equal(t, "/home/user/Downloads/report.pdf", records[1][2])
}

func TestCSVFormatter_Format_QuotesCommas(t *testing.T) {
	formatter := &CSVFormatter{}
	var buf bytes.Buffer

	result := &Result{
		Rows: []Row{
			{
				Source:      "/downloads/report, final.pdf",
				Destination: "/sorted/PDF/report, final.pdf",
				SizeHuman:   "1.0 MiB",
				Action:      ActionMoved,
			},
		},
	}

	err := formatter.Format(&buf, result)
	require.NoError(t, err)

	reader := csv.NewReader(strings.NewReader(buf.String()))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "/downloads/report, final.pdf", records[1][2])
}

func TestMarkdownFormatter_Format(t *testing.T) {
	formatter := &MarkdownFormatter{}
	var buf bytes.Buffer

	err := formatter.Format(&buf, sampleResult())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5) // header + separator + 3 rows

	assert.Equal(t, "| ACTION | SIZE | SOURCE | DESTINATION |", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "|--"))
	assert.Contains(t, lines[2], "| moved |")
}

func TestMarkdownFormatter_Format_EscapesPipes(t *testing.T) {
	formatter := &MarkdownFormatter{}
	var buf bytes.Buffer

	result := &Result{
		Rows: []Row{
			{Source: "/downloads/weird|name.txt", Action: ActionMoved},
		},
	}

	err := formatter.Format(&buf, result)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `weird\|name.txt`)
}
