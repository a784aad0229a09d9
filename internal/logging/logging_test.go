package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_WritesBothSinks(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var console, file bytes.Buffer
	logger := New(&console, &file, false, true)

	logger.Debug().Msg("hidden")
	logger.Info().Str("jql", "filter=1").Int("issues", 3).Msg("Search finished")

	if strings.Contains(console.String(), "hidden") || strings.Contains(file.String(), "hidden") {
		t.Error("debug line written at info level")
	}
	if !strings.Contains(console.String(), "Search finished") || !strings.Contains(console.String(), "jql=filter=1") {
		t.Errorf("console output = %q", console.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(file.Bytes(), &entry); err != nil {
		t.Fatalf("file sink is not JSON: %v (%q)", err, file.String())
	}
	if entry["message"] != "Search finished" || entry["issues"] != 3.0 {
		t.Errorf("file entry = %v", entry)
	}
}

func TestNew_Verbose(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var console bytes.Buffer
	logger := New(&console, nil, true, true)
	logger.Debug().Msg("page fetched")

	if !strings.Contains(console.String(), "page fetched") {
		t.Errorf("debug line missing in verbose mode: %q", console.String())
	}
}

func TestNewFileWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	w, err := NewFileWriter(dir)
	if err != nil {
		t.Fatalf("NewFileWriter: %v", err)
	}
	defer w.Close()

	if w.Filename != filepath.Join(dir, FileName) {
		t.Errorf("Filename = %q", w.Filename)
	}
	if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
		t.Error("write probe left behind")
	}
}

func TestNewFileWriter_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileWriter(path); err == nil {
		t.Error("expected error when the log path is a file")
	}
}

func TestDir(t *testing.T) {
	t.Setenv("ITRACK_LOG_DIR", "/var/log/itrack")
	if got := Dir(); got != "/var/log/itrack" {
		t.Errorf("Dir() = %q, want ITRACK_LOG_DIR", got)
	}

	t.Setenv("ITRACK_LOG_DIR", "")
	exePath, err := os.Executable()
	if err != nil {
		t.Skip("executable path unavailable")
	}
	if got, want := Dir(), filepath.Join(filepath.Dir(exePath), "logs"); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}
