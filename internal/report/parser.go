package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Parser deserializes an exported report back into a Run.
type Parser interface {
	Parse(data []byte) (*Run, error)
}

// JSONParser parses a JSON-encoded Run.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("not a valid chronogen report: %w", err)
	}
	if run.ID == "" {
		return nil, fmt.Errorf("not a valid chronogen report: missing id")
	}
	return &run, nil
}

// MarkdownParser extracts the embedded payload from a Markdown report.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*Run, error) {
	content := string(data)

	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid chronogen report: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid chronogen report: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid chronogen report: malformed data payload")
	}

	jsonBytes, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("not a valid chronogen report: corrupted base64 payload: %w", err)
	}

	var run Run
	if err := json.Unmarshal(jsonBytes, &run); err != nil {
		return nil, fmt.Errorf("not a valid chronogen report: failed to parse embedded JSON: %w", err)
	}
	return &run, nil
}

// ParserFor picks a parser from the file extension. Anything that is not
// .json is treated as Markdown.
func ParserFor(path string) Parser {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return &JSONParser{}
	}
	return &MarkdownParser{}
}
