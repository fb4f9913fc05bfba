package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: chronogen, Property 10: Config merge precedence
func TestConfigMergePrecedence(t *testing.T) {
	nonEmptyString := rapid.StringMatching(`[a-zA-Z0-9/_.-]{1,20}`)

	configGen := rapid.Custom(func(t *rapid.T) *Config {
		cfg := &Config{}
		if rapid.Bool().Draw(t, "hasDefaultFormat") {
			cfg.DefaultFormat = nonEmptyString.Draw(t, "defaultFormat")
		}
		if rapid.Bool().Draw(t, "hasOutputDir") {
			cfg.OutputDir = nonEmptyString.Draw(t, "outputDir")
		}
		if rapid.Bool().Draw(t, "hasInsightModel") {
			cfg.InsightModel = nonEmptyString.Draw(t, "insightModel")
		}
		if rapid.Bool().Draw(t, "hasLogLevel") {
			cfg.LogLevel = nonEmptyString.Draw(t, "logLevel")
		}
		if rapid.Bool().Draw(t, "hasSampleInterval") {
			cfg.SampleIntervalMs = rapid.IntRange(1, 1000).Draw(t, "sampleIntervalMs")
		}
		return cfg
	})

	rapid.Check(t, func(t *rapid.T) {
		global := configGen.Draw(t, "global")
		project := configGen.Draw(t, "project")

		merged := Merge(global, project)
		defaults := Defaults()

		checkStringField(t, "DefaultFormat",
			global.DefaultFormat, project.DefaultFormat, defaults.DefaultFormat,
			merged.DefaultFormat)
		checkStringField(t, "OutputDir",
			global.OutputDir, project.OutputDir, defaults.OutputDir,
			merged.OutputDir)
		checkStringField(t, "InsightModel",
			global.InsightModel, project.InsightModel, defaults.InsightModel,
			merged.InsightModel)
		checkStringField(t, "LogLevel",
			global.LogLevel, project.LogLevel, defaults.LogLevel,
			merged.LogLevel)

		wantInterval := defaults.SampleIntervalMs
		switch {
		case project.SampleIntervalMs > 0:
			wantInterval = project.SampleIntervalMs
		case global.SampleIntervalMs > 0:
			wantInterval = global.SampleIntervalMs
		}
		if merged.SampleIntervalMs != wantInterval {
			t.Fatalf("SampleIntervalMs: want %d, got %d", wantInterval, merged.SampleIntervalMs)
		}
	})
}

// checkStringField asserts the merge precedence rule for a single string field:
//   - project non-empty  → merged == project
//   - project empty, global non-empty → merged == global
//   - both empty → merged == defaultVal
func checkStringField(t *rapid.T, name, globalVal, projectVal, defaultVal, mergedVal string) {
	t.Helper()
	switch {
	case projectVal != "":
		if mergedVal != projectVal {
			t.Fatalf("%s: both set: expected project value %q, got %q", name, projectVal, mergedVal)
		}
	case globalVal != "":
		if mergedVal != globalVal {
			t.Fatalf("%s: only global set: expected global value %q, got %q", name, globalVal, mergedVal)
		}
	default:
		if mergedVal != defaultVal {
			t.Fatalf("%s: neither set: expected default %q, got %q", name, defaultVal, mergedVal)
		}
	}
}

func TestDefaultsValues(t *testing.T) {
	d := Defaults()
	if d.DefaultFormat != "markdown" {
		t.Errorf("DefaultFormat: want %q, got %q", "markdown", d.DefaultFormat)
	}
	if d.SampleInterval() != 10*time.Millisecond {
		t.Errorf("SampleInterval: want 10ms, got %v", d.SampleInterval())
	}
	if d.InsightModel != "gemini-2.5-flash" {
		t.Errorf("InsightModel: got %q", d.InsightModel)
	}
	if d.InsightTimeout() != 30*time.Second {
		t.Errorf("InsightTimeout: got %v", d.InsightTimeout())
	}
}

func TestLoadGlobalMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg == nil || *cfg != Defaults() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadProjectMissingFileReturnsNil(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config, got %+v", cfg)
	}
}

func TestLoadProjectReadsFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	data := []byte(`{"default_format":"json","sample_interval_ms":25}`)
	if err := os.WriteFile(filepath.Join(dir, ".chronogenconfig"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadProject()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultFormat != "json" || cfg.SampleIntervalMs != 25 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadGlobalParseError(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	cfgDir := filepath.Join(tmp, ".config", "chronogen")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte("{invalid json"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadGlobal()
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ParseError, got %T: %v", err, err)
	}
	if parseErr.Path != filepath.Join(cfgDir, "config.json") {
		t.Errorf("ParseError.Path: got %q", parseErr.Path)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "fallback-key")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHRONOGEN_INSIGHT_MODEL", "")

	cfg := ApplyEnv(Defaults())
	if cfg.APIKey != "fallback-key" {
		t.Errorf("APIKey: got %q", cfg.APIKey)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: got %q", cfg.LogLevel)
	}
	if cfg.InsightModel != Defaults().InsightModel {
		t.Errorf("InsightModel overridden by empty env: %q", cfg.InsightModel)
	}

	t.Setenv("GEMINI_API_KEY", "primary-key")
	if got := ApplyEnv(Defaults()).APIKey; got != "primary-key" {
		t.Errorf("GEMINI_API_KEY should win, got %q", got)
	}
}
