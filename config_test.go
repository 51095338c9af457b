package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWithNoPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") error = %v", err)
	}
	if cfg.OutputSectionName != "soda" {
		t.Errorf("OutputSectionName = %q, want %q", cfg.OutputSectionName, "soda")
	}
	if !cfg.EnableInitFiniArray {
		t.Error("EnableInitFiniArray = false, want true")
	}
	if cfg.Verbosity != 0 {
		t.Errorf("Verbosity = %d, want 0", cfg.Verbosity)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestLoadConfigOverridesFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "soda.yaml")
	const yaml = "output_section_name: custom\nenable_init_fini_array: false\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig(%q) error = %v", path, err)
	}
	if cfg.OutputSectionName != "custom" {
		t.Errorf("OutputSectionName = %q, want %q", cfg.OutputSectionName, "custom")
	}
	if cfg.EnableInitFiniArray {
		t.Error("EnableInitFiniArray = true, want false (overridden by config file)")
	}
	// Fields the file omits keep their default.
	if cfg.Verbosity != 0 {
		t.Errorf("Verbosity = %d, want 0", cfg.Verbosity)
	}
}
