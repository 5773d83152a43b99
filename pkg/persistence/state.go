package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// RigState is the last known state of one rig.
type RigState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// SessionID is the session that wrote the state.
	SessionID string `json:"session_id,omitempty"`

	// Model is the numeric model ID, ModelName its display name.
	Model     int    `json:"model"`
	ModelName string `json:"model_name,omitempty"`

	// Port and Rate describe the serial line that was used.
	Port string `json:"port,omitempty"`
	Rate int    `json:"rate,omitempty"`

	// Address is the CI-V address of the rig.
	Address uint8 `json:"address"`

	// VFO, Mode and Width are names as accepted by the caps parsers.
	VFO   string `json:"vfo,omitempty"`
	Freq  uint64 `json:"freq,omitempty"`
	Mode  string `json:"mode,omitempty"`
	Width string `json:"width,omitempty"`

	// TuningStep is in Hz.
	TuningStep uint64 `json:"tuning_step,omitempty"`

	// Channel is the last selected memory channel.
	Channel *int `json:"channel,omitempty"`

	// Levels and Funcs hold the values last written, keyed by name.
	Levels map[string]float64 `json:"levels,omitempty"`
	Funcs  map[string]bool    `json:"funcs,omitempty"`
}

// StateStore manages persistence of rig state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a state store writing to path.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the state file path.
func (s *StateStore) Path() string {
	return s.path
}

// Save persists the rig state to disk.
func (s *StateStore) Save(state *RigState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	// Replace atomically.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Load reads the rig state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*RigState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &RigState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}

	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
