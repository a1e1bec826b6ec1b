package collector

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/vinvit-2/exp-ai-account/internal/errors"
	"github.com/vinvit-2/exp-ai-account/telemetry"
)

// JSONLStore appends envelopes to a newline-delimited JSON file, the format
// the analysis tool reads.
type JSONLStore struct {
	mu   sync.Mutex
	file *os.File
}

// NewJSONLStore opens (or creates) the event file for appending.
func NewJSONLStore(path string) (*JSONLStore, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open event file %s", path)
	}
	return &JSONLStore{file: file}, nil
}

// Deliver writes one envelope as a single JSON line.
func (s *JSONLStore) Deliver(ctx context.Context, env telemetry.Envelope) error {
	line, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, "failed to encode event")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(append(line, '\n')); err != nil {
		return errors.Wrap(err, "failed to append event")
	}
	return nil
}

// Close closes the underlying file.
func (s *JSONLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
