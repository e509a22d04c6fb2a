package mailsource

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeSpoolFile(t *testing.T, root, label, name, content string, modTime time.Time) {
	t.Helper()
	dir := filepath.Join(root, label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatal(err)
	}
}

func TestSpoolSource_SearchOrdersByModTime(t *testing.T) {
	root := t.TempDir()
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	writeSpoolFile(t, root, "thermo", "b.eml", "second", base.Add(time.Hour))
	writeSpoolFile(t, root, "thermo", "a.eml", "first", base)
	writeSpoolFile(t, root, "thermo", "notes.txt", "ignored", base)

	source, err := NewSpoolSource(root, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	ids, err := source.Search(context.Background(), "thermo")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 messages, got %d: %v", len(ids), ids)
	}
	if filepath.Base(ids[0]) != "a.eml" || filepath.Base(ids[1]) != "b.eml" {
		t.Errorf("order = %v, want a.eml before b.eml", ids)
	}
}

func TestSpoolSource_SearchMissingLabel(t *testing.T) {
	source, err := NewSpoolSource(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	ids, err := source.Search(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v, want none", ids)
	}
}

func TestSpoolSource_FetchAndMarkProcessed(t *testing.T) {
	root := t.TempDir()
	modTime := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	writeSpoolFile(t, root, "pool", "status.eml", "raw message bytes", modTime)

	source, err := NewSpoolSource(root, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	ids, err := source.Search(context.Background(), "pool")
	if err != nil || len(ids) != 1 {
		t.Fatalf("search = %v, %v", ids, err)
	}

	msg, err := source.Fetch(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if string(msg.Raw) != "raw message bytes" {
		t.Errorf("raw = %q", msg.Raw)
	}
	if !msg.Date.Equal(modTime) {
		t.Errorf("date = %v, want %v", msg.Date, modTime)
	}

	if err := source.MarkProcessed(context.Background(), ids[0], "pool"); err != nil {
		t.Fatalf("mark processed failed: %v", err)
	}

	// The message is gone from the label directory and sits under
	// processed/ instead.
	ids, err = source.Search(context.Background(), "pool")
	if err != nil || len(ids) != 0 {
		t.Fatalf("search after processing = %v, %v", ids, err)
	}
	if _, err := os.Stat(filepath.Join(root, "pool", "processed", "status.eml")); err != nil {
		t.Errorf("processed file missing: %v", err)
	}
}

func TestSpoolSource_RejectsEscapingIDs(t *testing.T) {
	source, err := NewSpoolSource(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := source.Fetch(context.Background(), "../../etc/passwd"); err == nil {
		t.Error("expected error for escaping message id")
	}
}

func TestNewSpoolSource_MissingDir(t *testing.T) {
	if _, err := NewSpoolSource("/does/not/exist", testLogger()); err == nil {
		t.Error("expected error for missing spool directory")
	}
}
