package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// FileWriter appends hash-chained events to a JSONL file.
//
// Every event links to its predecessor: HashPrev carries the previous
// event's hash and Hash covers the event's canonical JSON. Reopening an
// existing log resumes the chain from its last entry, so a log survives
// process restarts without a visible seam.
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	lastHash string
}

var _ Writer = (*FileWriter)(nil)

// NewFileWriter opens or creates the audit log at path.
// The parent directory must already exist.
func NewFileWriter(path string) (*FileWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}

	lastHash, err := recoverLastHash(path)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	return &FileWriter{
		file:     file,
		path:     path,
		lastHash: lastHash,
	}, nil
}

// Path returns the log file path.
func (w *FileWriter) Path() string {
	return w.path
}

// Write validates the event, links it into the hash chain, and appends
// it as one JSON line. The write is synced to disk before returning.
func (w *FileWriter) Write(event *Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid audit event: %w", err)
	}

	event.HashPrev = w.lastHash
	hash, err := computeHash(event)
	if err != nil {
		return fmt.Errorf("hash audit event: %w", err)
	}
	event.Hash = hash

	line, err := event.JSON()
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	if _, err := w.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync audit log: %w", err)
	}

	w.lastHash = event.Hash
	return nil
}

// Close closes the underlying file.
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// LastHash returns the hash of the most recently written event.
func (w *FileWriter) LastHash() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastHash
}

// computeHash returns the chain hash of an event whose HashPrev is set.
func computeHash(event *Event) (string, error) {
	canonical, err := event.CanonicalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return HashPrefix + hex.EncodeToString(sum[:]), nil
}

// recoverLastHash reads the final event of an existing log so a reopened
// writer continues the chain instead of restarting it.
func recoverLastHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return GenesisHash, nil
		}
		return "", fmt.Errorf("read audit log: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lastLine []byte
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		lastLine = append(lastLine[:0], scanner.Bytes()...)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read audit log: %w", err)
	}
	if len(lastLine) == 0 {
		return GenesisHash, nil
	}

	var event Event
	if err := json.Unmarshal(lastLine, &event); err != nil {
		return "", fmt.Errorf("audit log %s has an unreadable final event: %w", path, err)
	}
	if event.Hash == "" {
		return "", fmt.Errorf("audit log %s has an unhashed final event", path)
	}
	return event.Hash, nil
}
