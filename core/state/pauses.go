package state

import (
	"encoding/json"
	"fmt"
)

const pausesParam = "system/pauses"

type pauseToggles struct {
	Hatch   bool `json:"hatch"`
	Staking bool `json:"staking"`
	Store   bool `json:"store"`
}

func (m *Manager) loadPauses() (pauseToggles, error) {
	var toggles pauseToggles
	raw, ok, err := m.ParamStoreGet(pausesParam)
	if err != nil {
		return toggles, fmt.Errorf("state: load pauses: %w", err)
	}
	if !ok || len(raw) == 0 {
		return toggles, nil
	}
	if err := json.Unmarshal(raw, &toggles); err != nil {
		return toggles, fmt.Errorf("state: decode pauses: %w", err)
	}
	return toggles, nil
}

// Paused reports whether the named module's pause toggle is enabled. Unknown
// modules report an error so typos surface early.
func (m *Manager) Paused(module string) (bool, error) {
	toggles, err := m.loadPauses()
	if err != nil {
		return false, err
	}
	switch module {
	case "hatch":
		return toggles.Hatch, nil
	case "staking":
		return toggles.Staking, nil
	case "store":
		return toggles.Store, nil
	default:
		return false, fmt.Errorf("state: unknown pause module %q", module)
	}
}

// SetPaused flips the named module's pause toggle.
func (m *Manager) SetPaused(module string, paused bool) error {
	toggles, err := m.loadPauses()
	if err != nil {
		return err
	}
	switch module {
	case "hatch":
		toggles.Hatch = paused
	case "staking":
		toggles.Staking = paused
	case "store":
		toggles.Store = paused
	default:
		return fmt.Errorf("state: unknown pause module %q", module)
	}
	encoded, err := json.Marshal(toggles)
	if err != nil {
		return fmt.Errorf("state: encode pauses: %w", err)
	}
	return m.ParamStoreSet(pausesParam, encoded)
}
