package delivery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FailedDelivery is one durable record of a report that could not be posted.
// Operators replay these by hand, so the full report is embedded.
type FailedDelivery struct {
	Time     string `json:"time"`
	Report   Report `json:"report"`
	Error    string `json:"error"`
	Attempts int    `json:"attempts"`
}

// FallbackLog appends failed deliveries to a JSONL file, one record per line.
type FallbackLog struct {
	mu   sync.Mutex
	path string
}

// NewFallbackLog creates a fallback log at path. The file and its parent
// directory are created lazily on first append.
func NewFallbackLog(path string) *FallbackLog {
	return &FallbackLog{path: path}
}

// Append durably records a failed delivery before the retry loop gives up.
func (f *FallbackLog) Append(report Report, deliveryErr error, attempts int) error {
	if f == nil || f.path == "" {
		return nil
	}

	record := FailedDelivery{
		Time:     time.Now().UTC().Format(time.RFC3339),
		Report:   report,
		Attempts: attempts,
	}
	if deliveryErr != nil {
		record.Error = deliveryErr.Error()
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("delivery: failed to encode fallback record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("delivery: failed to create fallback dir: %w", err)
		}
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("delivery: failed to open fallback log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("delivery: failed to write fallback record: %w", err)
	}
	return file.Sync()
}
