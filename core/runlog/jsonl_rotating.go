package runlog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// RotatingJSONLStore stores run records in a JSONL file capped by
// lumberjack rotation. Query reads rotated files as well, best effort:
// files removed by the age or backup caps are gone.
type RotatingJSONLStore struct {
	path string

	mu  sync.Mutex
	out *lumberjack.Logger
	enc *json.Encoder
}

// NewRotatingJSONLStore creates a store with rotation caps in
// megabytes and days.
func NewRotatingJSONLStore(path string, maxSizeMB, maxBackups, maxAgeDays int) (*RotatingJSONLStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}
	return &RotatingJSONLStore{path: path, out: out, enc: json.NewEncoder(out)}, nil
}

// Append writes the record, rotating the file first when it is full.
func (s *RotatingJSONLStore) Append(ctx context.Context, rec RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(rec)
}

// Query scans the live file and every rotated backup. Lumberjack names
// backups <name>-<timestamp><ext>, so they sort before the live file
// and the combined result keeps append order.
func (s *RotatingJSONLStore) Query(ctx context.Context, from, to time.Time, mode string) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ext := filepath.Ext(s.path)
	files, err := filepath.Glob(strings.TrimSuffix(s.path, ext) + "*" + ext)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var res []RunRecord
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		recs, err := scanRecords(ctx, f, from, to, mode)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		res = append(res, recs...)
	}
	return res, nil
}

// Close closes the underlying writer.
func (s *RotatingJSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out.Close()
}
