package runlog

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// A day of samples at the default tick rate serializes well under a
// megabyte; lines above this are dropped as corrupt.
const maxRecordBytes = 4 * 1024 * 1024

// JSONLStore appends run records to a JSONL file through one long
// lived handle. Queries scan the file with a separate read handle.
type JSONLStore struct {
	path string

	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

func NewJSONLStore(path string) (*JSONLStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLStore{path: path, f: f, enc: json.NewEncoder(f)}, nil
}

func (s *JSONLStore) Append(ctx context.Context, rec RunRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(rec)
}

func (s *JSONLStore) Query(ctx context.Context, from, to time.Time, mode string) ([]RunRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return scanRecords(ctx, f, from, to, mode)
}

func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// scanRecords reads JSONL records, keeping the ones inside the query
// window. Unparseable lines are skipped so one corrupt record does not
// hide the rest of the history.
func scanRecords(ctx context.Context, r io.Reader, from, to time.Time, mode string) ([]RunRecord, error) {
	var res []RunRecord
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec RunRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if matches(rec, from, to, mode) {
			res = append(res, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}
