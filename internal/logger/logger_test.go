package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestInit(t *testing.T) {
	logger := Init("test-service", slog.LevelInfo)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestRegistry_FileCreatesAndCaches(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir, slog.LevelInfo)
	defer r.Close()

	lg, err := r.File("bars")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	lg.Info("hello", "k", "v")

	again, err := r.File("bars")
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	if again != lg {
		t.Error("expected the same logger for the same name")
	}

	if _, err := os.Stat(filepath.Join(dir, "bars.log")); err != nil {
		t.Errorf("expected bars.log to exist: %v", err)
	}
}

func TestRegistry_SeparateFilesPerName(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(dir, slog.LevelInfo)
	defer r.Close()

	a, _ := r.File("feed")
	b, _ := r.File("bars")
	a.Info("a")
	b.Info("b")

	for _, name := range []string{"feed.log", "bars.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
}

func TestRegistry_CloseRejectsFurtherUse(t *testing.T) {
	r := NewRegistry(t.TempDir(), slog.LevelInfo)
	if _, err := r.File("bars"); err != nil {
		t.Fatalf("File: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := r.File("bars"); err == nil {
		t.Error("expected error from File after Close")
	}
	// Second close is a no-op.
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
