// Package audit provides the append-only audit log.
// Clean Architecture: Adapter implementing ports.AuditSink.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
)

// FileSink appends one JSON object per line. Appends from concurrent
// requests and healing workers are serialized, so lines never interleave.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileSink opens (or creates) the log at path for appending.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		path = "audit.log"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating audit directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &FileSink{file: f}, nil
}

// Append writes the event and syncs it to disk before returning.
func (s *FileSink) Append(_ context.Context, event entities.AuditEvent) error {
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return s.file.Sync()
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
