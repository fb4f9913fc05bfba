package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/chronogen/internal/stopwatch"
)

const (
	versionSentinel = "<!-- chronogen-report-version: 1 -->"
	dataPrefix      = "<!-- chronogen-data: "
	dataSuffix      = " -->"
)

// Renderer serializes a Run to bytes.
type Renderer interface {
	Render(run *Run) ([]byte, error)
}

// JSONRenderer renders a Run as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(run *Run) ([]byte, error) {
	return json.MarshalIndent(run, "", "  ")
}

// MarkdownRenderer renders a Run as readable Markdown with an embedded
// base64 JSON payload so the file can be parsed back without loss.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(run *Run) ([]byte, error) {
	jsonBytes, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("marshal run: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder
	sb.WriteString(versionSentinel + "\n")
	sb.WriteString(dataPrefix + encoded + dataSuffix + "\n\n")

	fmt.Fprintf(&sb, "# Stopwatch run %s\n\n", run.StoppedAt.Format("2006-01-02 15:04:05 MST"))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Total: %s\n", stopwatch.Format(run.Total))
	fmt.Fprintf(&sb, "- Started: %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "- Stopped: %s\n", run.StoppedAt.Format("2006-01-02 15:04:05"))
	if run.Author != "" {
		fmt.Fprintf(&sb, "- Author: %s\n", run.Author)
	}
	fmt.Fprintf(&sb, "- Laps: %d\n", len(run.Laps))
	sb.WriteString("\n")

	sb.WriteString("## Laps\n\n")
	if len(run.Laps) == 0 {
		sb.WriteString("_No laps recorded._\n")
	} else {
		sb.WriteString("| Lap | Split | Total | |\n")
		sb.WriteString("|-----|-------|-------|-|\n")
		for _, l := range run.Laps {
			fmt.Fprintf(&sb, "| %d | %s | %s | %s |\n",
				l.Number,
				stopwatch.Format(l.Split),
				stopwatch.Format(l.Total),
				lapNote(run, l.Number),
			)
		}
	}
	sb.WriteString("\n")

	if run.Insight != nil {
		sb.WriteString("## Insight\n\n")
		fmt.Fprintf(&sb, "> %s\n\n", run.Insight.Text)
	}

	return []byte(sb.String()), nil
}

// lapNote marks the fastest and slowest laps.
func lapNote(run *Run, number int) string {
	switch number {
	case run.FastestLap:
		return "fastest"
	case run.SlowestLap:
		return "slowest"
	}
	return ""
}

// RendererFor returns the renderer and file extension for a format name.
func RendererFor(format string) (Renderer, string, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONRenderer{}, ".json", nil
	case "", "markdown", "md":
		return &MarkdownRenderer{}, ".md", nil
	}
	return nil, "", fmt.Errorf("unknown report format %q (want markdown or json)", format)
}
