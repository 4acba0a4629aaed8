package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleResult builds a representative organize run result for formatter tests.
func sampleResult() *Result {
	return &Result{
		Rows: []Row{
			{
				Source:      "/home/user/Downloads/report.pdf",
				Destination: "/home/user/Sorted/PDF/report.pdf",
				Category:    "PDF",
				Size:        1048576,
				SizeHuman:   "1.0 MiB",
				ModTime:     time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC),
				Action:      ActionMoved,
			},
			{
				Source:      "/home/user/Downloads/photo.jpg",
				Destination: "/home/user/Sorted/Images/photo.jpg",
				Category:    "Images",
				Size:        524288,
				SizeHuman:   "512 KiB",
				ModTime:     time.Date(2023, 6, 16, 8, 0, 0, 0, time.UTC),
				Action:      ActionMoved,
			},
			{
				Source:    "/home/user/Downloads/dupe.jpg",
				Category:  "Images",
				Size:      524288,
				SizeHuman: "512 KiB",
				Action:    ActionSkipped,
				Reason:    "duplicate of photo.jpg",
			},
		},
		Stats: RunStats{
			Scanned:  3,
			Moved:    2,
			Skipped:  1,
			Duration: 2 * time.Second,
		},
		Source:       "/home/user/Downloads",
		Dest:         "/home/user/Sorted",
		Mode:         "move",
		RunID:        "550e8400-e29b-41d4-a716-446655440000",
		ManifestPath: "/home/user/Sorted/manifest_2023-06-16T09-00-00.json",
		TotalFiles:   3,
	}
}

func TestRow(t *testing.T) {
	row := Row{
		Source:      "/downloads/report.pdf",
		Destination: "/sorted/PDF/report.pdf",
		Category:    "PDF",
		Size:        1048576,
		SizeHuman:   "1.0 MiB",
		Action:      ActionMoved,
	}

	assert.Equal(t, "/downloads/report.pdf", row.Source)
	assert.Equal(t, "/sorted/PDF/report.pdf", row.Destination)
	assert.Equal(t, "PDF", row.Category)
	assert.Equal(t, int64(1048576), row.Size)
	assert.Equal(t, "moved", row.Action)
	assert.Empty(t, row.Reason)
}

func TestResult_TotalSize(t *testing.T) {
	tests := []struct {
		name     string
		rows     []Row
		expected int64
	}{
		{
			name:     "empty rows",
			rows:     []Row{},
			expected: 0,
		},
		{
			name: "single row",
			rows: []Row{
				{Source: "/a.txt", Size: 1000},
			},
			expected: 1000,
		},
		{
			name: "multiple rows",
			rows: []Row{
				{Source: "/a.txt", Size: 1000},
				{Source: "/b.txt", Size: 2000},
				{Source: "/c.txt", Size: 3000},
			},
			expected: 6000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Result{Rows: tt.rows}
			assert.Equal(t, tt.expected, result.TotalSize())
		})
	}
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "1.0 MiB", HumanSize(1048576))
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "0 B", HumanSize(0))
	assert.Equal(t, "0 B", HumanSize(-1))
}

// mockFormatter is a simple formatter for testing the registry.
type mockFormatter struct {
	formatCalled bool
}

func (m *mockFormatter) Format(w *bytes.Buffer, r *Result) error {
	m.formatCalled = true
	w.WriteString("mock output")
	return nil
}

func TestFormatterInterface(t *testing.T) {
	var f Formatter = &mockFormatter{}
	var buf bytes.Buffer
	result := &Result{}

	err := f.Format(&buf, result)
	require.NoError(t, err)
	assert.Equal(t, "mock output", buf.String())
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	reg := NewRegistry()

	mockFactory := func() Formatter {
		return &mockFormatter{}
	}
	reg.Register("mock", mockFactory)

	formatter, err := reg.Get("mock")
	require.NoError(t, err)
	assert.NotNil(t, formatter)

	var buf bytes.Buffer
	err = formatter.Format(&buf, &Result{})
	require.NoError(t, err)
	assert.Equal(t, "mock output", buf.String())
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown")
}

func TestRegistry_Available_Sorted(t *testing.T) {
	reg := NewRegistry()

	mockFactory := func() Formatter {
		return &mockFormatter{}
	}

	reg.Register("zeta", mockFactory)
	reg.Register("alpha", mockFactory)
	reg.Register("beta", mockFactory)

	available := reg.Available()
	assert.Equal(t, []string{"alpha", "beta", "zeta"}, available)
}

func TestGlobalRegistry_BuiltinFormatters(t *testing.T) {
	available := Available()

	for _, name := range []string{
		"pretty", "plain", "json", "jsonl", "yaml",
		"tsv", "csv", "markdown", "paths", "null", "template",
	} {
		assert.Contains(t, available, name)

		formatter, err := Get(name)
		require.NoError(t, err, "Get(%q)", name)
		assert.NotNil(t, formatter)
	}
}
