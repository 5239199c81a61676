package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRecord_appendsJSONL(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	l := New(root, "cloud")
	fixed := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	if err := l.Record("claim", "task.md", "In_Progress", "success", ""); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := l.Record("release", "task.md", "Done", "success", "executed"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := l.ReadDay(fixed)
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries: %d", len(entries))
	}
	first := entries[0]
	if first.Agent != "cloud" || first.Action != "claim" || first.Item != "task.md" {
		t.Fatalf("entry: %+v", first)
	}
	if first.ID == "" || first.ID == entries[1].ID {
		t.Fatalf("entry ids must be unique and non-empty: %q %q", first.ID, entries[1].ID)
	}
	if first.Time != "2025-06-01T10:30:00Z" {
		t.Fatalf("entry time: %q", first.Time)
	}
}

func TestRecord_dailyRotation(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	l := New(root, "local")
	day1 := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC)

	l.now = func() time.Time { return day1 }
	if err := l.Record("sync", "", "", "success", ""); err != nil {
		t.Fatal(err)
	}
	l.now = func() time.Time { return day2 }
	if err := l.Record("sync", "", "", "failure", "push rejected"); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"2025-06-01.jsonl", "2025-06-02.jsonl"} {
		if _, err := os.Stat(filepath.Join(root, "Logs", name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	e1, err := l.ReadDay(day1)
	if err != nil || len(e1) != 1 {
		t.Fatalf("day1 entries: %v %v", e1, err)
	}
	e2, err := l.ReadDay(day2)
	if err != nil || len(e2) != 1 {
		t.Fatalf("day2 entries: %v %v", e2, err)
	}
	if e2[0].Detail != "push rejected" {
		t.Fatalf("detail: %q", e2[0].Detail)
	}
}

func TestReadDay_missingFile(t *testing.T) {
	t.Parallel()
	l := New(t.TempDir(), "local")
	entries, err := l.ReadDay(time.Now())
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries: %v", entries)
	}
}
