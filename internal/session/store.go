// Package session persists the last triage proposal so a later reply can
// refer to its items by position.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mikey/clawtools/internal/core"
	"github.com/mikey/clawtools/internal/utils"
	"go.uber.org/zap"
)

// ErrNotFound is returned when no proposal has been stored yet
var ErrNotFound = errors.New("no triage proposal found; run propose first")

// FileStore keeps the session state in one JSON file, rewritten on every save
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a state store at path
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Load reads the stored proposal
func (s *FileStore) Load() (*core.SessionState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read triage state: %w", err)
	}

	var state core.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("invalid triage state %s: %w", s.path, err)
	}
	return &state, nil
}

// Save overwrites the stored proposal
func (s *FileStore) Save(state *core.SessionState) error {
	if state.Items == nil {
		state.Items = []core.Candidate{}
	}
	if err := utils.WriteJSON(s.path, state); err != nil {
		return fmt.Errorf("failed to write triage state: %w", err)
	}
	s.logger.Debug("Saved triage state",
		zap.String("path", s.path),
		zap.String("generation", state.Generation),
		zap.Int("items", len(state.Items)))
	return nil
}
