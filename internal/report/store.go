package report

import (
	"fmt"
	"os"
	"path/filepath"
)

// filenameLayout avoids colons so exported names are portable.
const filenameLayout = "2006-01-02T15-04-05"

// Save renders run in format and writes it to dir as
// chronogen-<timestamp>.<ext>. The write is atomic: a temp file in the same
// directory is renamed into place. It returns the written path.
func Save(dir string, run *Run, format string) (path string, err error) {
	renderer, ext, err := RendererFor(format)
	if err != nil {
		return "", err
	}
	data, err := renderer.Render(run)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path = filepath.Join(dir, "chronogen-"+run.StoppedAt.Format(filenameLayout)+ext)

	tmp, err := os.CreateTemp(dir, "chronogen-*"+ext+".tmp")
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Load reads and parses an exported report.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, err
	}
	return ParserFor(path).Parse(data)
}
