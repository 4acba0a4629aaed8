package output

import (
	"bytes"
	"encoding/json"
	"time"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Operations []jsonOperation `json:"operations"`
	Stats      jsonStats       `json:"stats"`
	Meta       jsonMeta        `json:"meta"`
}

// jsonOperation represents one file outcome in JSON output.
type jsonOperation struct {
	Source      string    `json:"source"`
	Destination string    `json:"destination,omitempty"`
	Category    string    `json:"category,omitempty"`
	Size        int64     `json:"size"`
	SizeHuman   string    `json:"size_human"`
	ModTime     time.Time `json:"mod_time,omitempty"`
	Action      string    `json:"action"`
	Reason      string    `json:"reason,omitempty"`
}

// jsonStats represents run statistics in JSON output.
type jsonStats struct {
	Scanned  int64  `json:"scanned"`
	Moved    int64  `json:"moved"`
	Copied   int64  `json:"copied"`
	Skipped  int64  `json:"skipped"`
	Failed   int64  `json:"failed"`
	Duration string `json:"duration"`
}

// jsonMeta represents metadata in JSON output.
type jsonMeta struct {
	Source       string   `json:"source"`
	Dest         string   `json:"dest"`
	Mode         string   `json:"mode"`
	DryRun       bool     `json:"dry_run"`
	ByDate       bool     `json:"by_date"`
	RunID        string   `json:"run_id,omitempty"`
	ManifestPath string   `json:"manifest_path,omitempty"`
	TotalFiles   int      `json:"total_files"`
	TotalSize    int64    `json:"total_size"`
	Warnings     []string `json:"warnings,omitempty"`
	Interrupted  bool     `json:"interrupted"`
}

// JSONFormatter formats output as a single indented JSON object.
// It produces a complete JSON document with operations, stats, and meta sections.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// buildOutput converts Result to the JSON output structure.
func (f *JSONFormatter) buildOutput(r *Result) jsonOutput {
	operations := make([]jsonOperation, len(r.Rows))
	for i, row := range r.Rows {
		operations[i] = jsonOperation{
			Source:      row.Source,
			Destination: row.Destination,
			Category:    row.Category,
			Size:        row.Size,
			SizeHuman:   row.SizeHuman,
			ModTime:     row.ModTime,
			Action:      row.Action,
			Reason:      row.Reason,
		}
	}

	stats := jsonStats{
		Scanned:  r.Stats.Scanned,
		Moved:    r.Stats.Moved,
		Copied:   r.Stats.Copied,
		Skipped:  r.Stats.Skipped,
		Failed:   r.Stats.Failed,
		Duration: formatDurationString(r.Stats.Duration),
	}

	meta := jsonMeta{
		Source:       r.Source,
		Dest:         r.Dest,
		Mode:         r.Mode,
		DryRun:       r.DryRun,
		ByDate:       r.ByDate,
		RunID:        r.RunID,
		ManifestPath: r.ManifestPath,
		TotalFiles:   r.TotalFiles,
		TotalSize:    r.TotalSize(),
		Warnings:     r.Warnings,
		Interrupted:  r.Interrupted,
	}

	return jsonOutput{
		Operations: operations,
		Stats:      stats,
		Meta:       meta,
	}
}

// formatDurationString formats a duration as a string for JSON output.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)

// JSONLFormatter formats output as newline-delimited JSON (one object per line).
// Each file outcome is written as a compact JSON object on its own line.
// This format is suitable for streaming processing with tools like jq.
type JSONLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONLFormatter) Format(w *bytes.Buffer, r *Result) error {
	for _, row := range r.Rows {
		op := jsonOperation{
			Source:      row.Source,
			Destination: row.Destination,
			Category:    row.Category,
			Size:        row.Size,
			SizeHuman:   row.SizeHuman,
			ModTime:     row.ModTime,
			Action:      row.Action,
			Reason:      row.Reason,
		}

		data, err := json.Marshal(op)
		if err != nil {
			return err
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	return nil
}

func init() {
	Register("jsonl", func() Formatter {
		return &JSONLFormatter{}
	})
}

// Ensure JSONLFormatter implements Formatter.
var _ Formatter = (*JSONLFormatter)(nil)
