package output

import (
	"bytes"
	"time"

	"gopkg.in/yaml.v3"
)

// yamlOutput represents the full YAML output structure.
type yamlOutput struct {
	Operations []yamlOperation `yaml:"operations"`
	Stats      yamlStats       `yaml:"stats"`
	Meta       yamlMeta        `yaml:"meta"`
}

// yamlOperation represents one file outcome in YAML output.
type yamlOperation struct {
	Source      string    `yaml:"source"`
	Destination string    `yaml:"destination,omitempty"`
	Category    string    `yaml:"category,omitempty"`
	Size        int64     `yaml:"size"`
	SizeHuman   string    `yaml:"size_human"`
	ModTime     time.Time `yaml:"mod_time,omitempty"`
	Action      string    `yaml:"action"`
	Reason      string    `yaml:"reason,omitempty"`
}

// yamlStats represents run statistics in YAML output.
type yamlStats struct {
	Scanned  int64  `yaml:"scanned"`
	Moved    int64  `yaml:"moved"`
	Copied   int64  `yaml:"copied"`
	Skipped  int64  `yaml:"skipped"`
	Failed   int64  `yaml:"failed"`
	Duration string `yaml:"duration"`
}

// yamlMeta represents metadata in YAML output.
type yamlMeta struct {
	Source       string   `yaml:"source"`
	Dest         string   `yaml:"dest"`
	Mode         string   `yaml:"mode"`
	DryRun       bool     `yaml:"dry_run"`
	ByDate       bool     `yaml:"by_date"`
	RunID        string   `yaml:"run_id,omitempty"`
	ManifestPath string   `yaml:"manifest_path,omitempty"`
	TotalFiles   int      `yaml:"total_files"`
	TotalSize    int64    `yaml:"total_size"`
	Warnings     []string `yaml:"warnings,omitempty"`
	Interrupted  bool     `yaml:"interrupted"`
}

// YAMLFormatter formats output as YAML.
// It produces the same structure as JSONFormatter but in YAML format.
type YAMLFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *YAMLFormatter) Format(w *bytes.Buffer, r *Result) error {
	output := f.buildOutput(r)

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(output); err != nil {
		return err
	}
	return encoder.Close()
}

// buildOutput converts Result to the YAML output structure.
func (f *YAMLFormatter) buildOutput(r *Result) yamlOutput {
	operations := make([]yamlOperation, len(r.Rows))
	for i, row := range r.Rows {
		operations[i] = yamlOperation{
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

	stats := yamlStats{
		Scanned:  r.Stats.Scanned,
		Moved:    r.Stats.Moved,
		Copied:   r.Stats.Copied,
		Skipped:  r.Stats.Skipped,
		Failed:   r.Stats.Failed,
		Duration: formatDurationString(r.Stats.Duration),
	}

	meta := yamlMeta{
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

	return yamlOutput{
		Operations: operations,
		Stats:      stats,
		Meta:       meta,
	}
}

func init() {
	Register("yaml", func() Formatter {
		return &YAMLFormatter{}
	})
}

// Ensure YAMLFormatter implements Formatter.
var _ Formatter = (*YAMLFormatter)(nil)
