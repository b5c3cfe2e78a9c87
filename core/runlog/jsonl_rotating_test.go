package runlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRotatingJSONLStore_RotatesAndKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()

	const n = 8000
	for i := 0; i < n; i++ {
		rec := testRecord(fmt.Sprintf("run-%d", i), "load", time.Now())
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	files, _ := filepath.Glob(strings.TrimSuffix(path, ".jsonl") + "*.jsonl")
	if len(files) < 2 {
		t.Fatalf("expected live file plus backups, got %v", files)
	}

	out, err := store.Query(context.Background(), time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != n {
		t.Fatalf("records across rotation = %d, want %d", len(out), n)
	}
	if out[0].ID != "run-0" || out[n-1].ID != fmt.Sprintf("run-%d", n-1) {
		t.Fatalf("append order lost: first %s last %s", out[0].ID, out[n-1].ID)
	}
}

func TestRotatingJSONLStore_QueryReadsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.jsonl")

	// A backup named the way lumberjack names them.
	old := testRecord("run-old", "price", time.Now().Add(-time.Hour))
	data, err := json.Marshal(old)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	backup := filepath.Join(dir, "runs-2026-01-02T03-04-05.000.jsonl")
	if err := os.WriteFile(backup, append(data, '\n'), 0o644); err != nil {
		t.Fatalf("write backup: %v", err)
	}

	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if err := store.Append(context.Background(), testRecord("run-new", "price", time.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}

	out, err := store.Query(context.Background(), time.Time{}, time.Time{}, "price")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("records = %d, want backup plus live", len(out))
	}
	if out[0].ID != "run-old" || out[1].ID != "run-new" {
		t.Fatalf("order = %s, %s", out[0].ID, out[1].ID)
	}
}
