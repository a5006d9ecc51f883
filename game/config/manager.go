package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/supplysim/beergame/game/engine"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

// DefaultPresetID is the preset used when a game is created without naming
// one.
const DefaultPresetID = "classic"

// Preset is a named, ready-to-play game configuration.
type Preset struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Config      engine.GameConfig `json:"config"`
}

// Manager resolves preset ids to configurations. Built-in presets are always
// present; a preset directory layered on top may add new ids or shadow the
// built-in ones.
type Manager struct {
	presets map[string]*Preset
	mu      sync.RWMutex
}

// NewManager creates a manager holding the built-in presets plus, when
// presetDir is non-empty, every valid JSON preset file found there.
func NewManager(presetDir string) (*Manager, error) {
	m := &Manager{
		presets: make(map[string]*Preset),
	}

	for _, preset := range builtinPresets() {
		m.presets[preset.ID] = preset
	}

	if presetDir != "" {
		if err := m.loadDir(presetDir); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Get returns a copy of the configuration behind a preset id. Callers may
// mutate the copy freely.
func (m *Manager) Get(id string) (*engine.GameConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	preset, exists := m.presets[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}

	config := preset.Config
	config.CustomDemand = append([]int(nil), preset.Config.CustomDemand...)
	return &config, nil
}

// Default returns a copy of the default preset's configuration.
func (m *Manager) Default() *engine.GameConfig {
	config, err := m.Get(DefaultPresetID)
	if err != nil {
		// The built-in default always exists unless shadowed by an override,
		// which load-time validation already accepted.
		return engine.DefaultConfig()
	}
	return config
}

// List returns every preset sorted by id.
func (m *Manager) List() []*Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Preset, 0, len(m.presets))
	for _, preset := range m.presets {
		result = append(result, preset)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result
}

// loadDir reads every *.json file in dir as a preset. Files that fail to
// parse or validate abort loading rather than being skipped silently.
func (m *Manager) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read preset directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("failed to read preset file %s: %w", entry.Name(), err)
		}

		var preset Preset
		if err := json.Unmarshal(data, &preset); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPreset, entry.Name(), err)
		}
		if preset.ID == "" {
			preset.ID = strings.TrimSuffix(entry.Name(), ".json")
		}
		if err := engine.ValidateGameConfig(&preset.Config); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPreset, entry.Name(), err)
		}

		m.presets[preset.ID] = &preset
	}

	return nil
}

func builtinPresets() []*Preset {
	return []*Preset{
		{
			ID:          "classic",
			Name:        "Classic",
			Description: "The standard 24-round game with stable demand that doubles midway",
			Config: engine.GameConfig{
				MaxRounds:            24,
				InventoryCostPerUnit: 0.5,
				StockoutCostPerUnit:  1.0,
				DeliveryDelay:        2,
				DemandPattern:        engine.DemandStable,
			},
		},
		{
			ID:          "short-run",
			Name:        "Short Run",
			Description: "A quick 12-round game with steadily climbing demand and a one-round delivery lag",
			Config: engine.GameConfig{
				MaxRounds:            12,
				InventoryCostPerUnit: 0.5,
				StockoutCostPerUnit:  1.0,
				DeliveryDelay:        1,
				DemandPattern:        engine.DemandIncreasing,
			},
		},
		{
			ID:          "volatile",
			Name:        "Volatile",
			Description: "A long 36-round game with unpredictable demand and punishing stockouts",
			Config: engine.GameConfig{
				MaxRounds:            36,
				InventoryCostPerUnit: 0.5,
				StockoutCostPerUnit:  1.5,
				DeliveryDelay:        2,
				DemandPattern:        engine.DemandRandom,
			},
		},
	}
}
