package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func resetState() {
	CloseAll()
	loggers = make(map[Category]*Logger)
	logsDir = ""
	workspace = ""
	configLoaded = false
	config = loggingConfig{}
	logLevel = LevelInfo
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, ".mirror")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestDebugModeCreatesLogFiles(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, `logging:
  debug_mode: true
  level: debug
`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if !IsDebugMode() {
		t.Fatal("expected debug mode to be enabled")
	}

	Pipeline("test pipeline entry")
	Safety("test safety entry")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(tempDir, ".mirror", "logs"))
	if err != nil {
		t.Fatalf("logs dir not created: %v", err)
	}
	var found bool
	for _, e := range entries {
		if strings.Contains(e.Name(), "pipeline") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a pipeline log file, got %v", entries)
	}
}

func TestProductionModeIsSilent(t *testing.T) {
	tempDir := t.TempDir()

	resetState()
	defer resetState()

	// No config file at all = production mode
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if IsDebugMode() {
		t.Fatal("expected debug mode to be disabled")
	}

	Pipeline("should not be written")

	if _, err := os.Stat(filepath.Join(tempDir, ".mirror", "logs")); !os.IsNotExist(err) {
		t.Error("logs directory should not exist in production mode")
	}
}

func TestCategoryFilter(t *testing.T) {
	tempDir := t.TempDir()
	writeConfig(t, tempDir, `logging:
  debug_mode: true
  level: debug
  categories:
    safety: true
    pipeline: false
`)

	resetState()
	defer resetState()

	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	if !IsCategoryEnabled(CategorySafety) {
		t.Error("safety category should be enabled")
	}
	if IsCategoryEnabled(CategoryPipeline) {
		t.Error("pipeline category should be disabled")
	}
	// Unlisted categories default to enabled
	if !IsCategoryEnabled(CategoryIntent) {
		t.Error("unlisted category should default to enabled")
	}
}
