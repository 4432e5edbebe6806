package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// TSVFile appends tab-separated records to a file. The header line is written
// only when the file is created empty, so reopening a file continues it.
type TSVFile struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenTSV opens (or creates) the record file at path.
func OpenTSV(path string) (*TSVFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create record directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open record file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat record file: %w", err)
	}
	if info.Size() == 0 {
		if _, err := f.WriteString(domain.RecordHeader + "\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("write record header: %w", err)
		}
	}
	return &TSVFile{path: path, f: f}, nil
}

// Path returns the file location.
func (t *TSVFile) Path() string {
	return t.path
}

func (t *TSVFile) Write(_ context.Context, record domain.TrialRecord) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f == nil {
		return fmt.Errorf("record file %s is closed", t.path)
	}
	if _, err := t.f.WriteString(record.TSV() + "\n"); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	// Each line is synced so an interrupted session keeps every classified trial.
	if err := t.f.Sync(); err != nil {
		return fmt.Errorf("sync record file: %w", err)
	}
	return nil
}

func (t *TSVFile) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f == nil {
		return nil
	}
	err := t.f.Close()
	t.f = nil
	return err
}

// FileName is the record file name for a participant and session.
func FileName(participantID, sessionID string) string {
	if participantID == "" {
		participantID = "anonymous"
	}
	return fmt.Sprintf("%s_%s_OSARI.txt", filepath.Base(participantID), sessionID)
}
