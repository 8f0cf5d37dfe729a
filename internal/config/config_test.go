package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	// Create temp config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "wizc.json")

	content := `{
		"disableMangling": true,
		"keepNames": ["foo", "bar"]
	}`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.DisableMangling == nil || *cfg.DisableMangling != true {
		t.Errorf("DisableMangling: got %v, want true", cfg.DisableMangling)
	}

	if len(cfg.KeepNames) != 2 || cfg.KeepNames[0] != "foo" || cfg.KeepNames[1] != "bar" {
		t.Errorf("KeepNames: got %v, want [foo bar]", cfg.KeepNames)
	}
}

func TestLoad(t *testing.T) {
	// Create nested directories with config in parent
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "project", "src")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create dirs: %v", err)
	}

	// Create config in project dir (one level up from src)
	configPath := filepath.Join(tmpDir, "project", "wizc.json")
	content := `{"disableMangling": true}`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	// Search from src dir - should find config in parent
	cfg, foundPath, err := Load(subDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config, got nil")
	}

	if foundPath != configPath {
		t.Errorf("found config at %s, expected %s", foundPath, configPath)
	}

	if cfg.DisableMangling == nil || *cfg.DisableMangling != true {
		t.Errorf("DisableMangling: got %v, want true", cfg.DisableMangling)
	}
}

func TestLoadNoConfig(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, path, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg != nil {
		t.Errorf("expected nil config, got %v", cfg)
	}

	if path != "" {
		t.Errorf("expected empty path, got %s", path)
	}
}

func TestToOptions(t *testing.T) {
	trueVal := true

	cfg := &Config{
		DisableMangling: &trueVal,
		KeepNames:       []string{"keep1", "keep2"},
	}

	opts := cfg.ToOptions()

	if opts.DisableMangling != true {
		t.Errorf("DisableMangling: got %v, want true", opts.DisableMangling)
	}

	if len(opts.KeepNames) != 2 {
		t.Errorf("KeepNames: got %v, want 2 items", opts.KeepNames)
	}
}

func TestMerge(t *testing.T) {
	trueVal := true
	falseVal := false

	// Config disables mangling
	cfg := &Config{
		DisableMangling: &trueVal,
	}

	// CLI re-enables it
	cliOpts := MergeOptions{
		DisableMangling: &falseVal,
	}

	opts := cfg.Merge(cliOpts)

	// CLI should win
	if opts.DisableMangling != false {
		t.Errorf("DisableMangling: got %v, want false (CLI override)", opts.DisableMangling)
	}
}

func TestMergeNoMangle(t *testing.T) {
	// Config leaves mangling on (default)
	cfg := &Config{}

	// CLI disables with --no-mangle
	cliOpts := MergeOptions{
		NoMangle: true,
	}

	opts := cfg.Merge(cliOpts)

	if opts.DisableMangling != true {
		t.Errorf("DisableMangling: got %v, want true (--no-mangle)", opts.DisableMangling)
	}
}

func TestMergeKeepNames(t *testing.T) {
	// Config has some keep names
	cfg := &Config{
		KeepNames: []string{"configName1", "configName2"},
	}

	// CLI adds more
	cliOpts := MergeOptions{
		KeepNames: []string{"cliName"},
	}

	opts := cfg.Merge(cliOpts)

	// Should have all three
	if len(opts.KeepNames) != 3 {
		t.Errorf("KeepNames: got %d items, want 3", len(opts.KeepNames))
	}
}

func TestConfigFileNames(t *testing.T) {
	// Test that all supported config file names are searched
	tmpDir := t.TempDir()

	// Test .wizcrc (second priority)
	rcPath := filepath.Join(tmpDir, ".wizcrc")
	content := `{"disableMangling": true}`

	if err := os.WriteFile(rcPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, foundPath, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg == nil {
		t.Fatal("expected config, got nil")
	}

	if filepath.Base(foundPath) != ".wizcrc" {
		t.Errorf("expected .wizcrc, got %s", filepath.Base(foundPath))
	}

	// Now add wizc.json (higher priority) - should use that instead
	jsonPath := filepath.Join(tmpDir, "wizc.json")
	jsonContent := `{"disableMangling": false}`

	if err := os.WriteFile(jsonPath, []byte(jsonContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, foundPath, err = Load(tmpDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if filepath.Base(foundPath) != "wizc.json" {
		t.Errorf("expected wizc.json (higher priority), got %s", filepath.Base(foundPath))
	}

	// Verify it's the json content (false vs true)
	if cfg.DisableMangling == nil || *cfg.DisableMangling != false {
		t.Errorf("DisableMangling: got %v, want false (from wizc.json)", cfg.DisableMangling)
	}
}
