package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"clpool/internal/model"
)

// StateStore persists the final pool state of a run to a local JSON file.
type StateStore struct {
	Path string
}

func (s *StateStore) Load() (model.PoolState, bool, error) {
	if s == nil || s.Path == "" {
		return model.PoolState{}, false, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.PoolState{}, false, nil
		}
		return model.PoolState{}, false, fmt.Errorf("read state: %w", err)
	}

	var state model.PoolState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.PoolState{}, false, fmt.Errorf("parse state: %w", err)
	}
	return state, true, nil
}

func (s *StateStore) Save(state model.PoolState) error {
	if s == nil || s.Path == "" {
		return nil
	}
	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
