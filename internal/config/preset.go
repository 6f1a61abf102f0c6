package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/On-Jun9/ShutterRename/internal/template"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// ErrBuiltInPreset is returned when a built-in preset would be overwritten or deleted.
var ErrBuiltInPreset = errors.New("built-in preset cannot be changed")

// PresetManager manages user template presets. Built-in presets from the
// template package are listed alongside them but never stored.
type PresetManager struct {
	presetsDir string
}

// NewPresetManager creates a new preset manager under DataDir()/presets.
func NewPresetManager() (*PresetManager, error) {
	presetsDir := filepath.Join(DataDir(), "presets")
	if err := os.MkdirAll(presetsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create presets directory: %w", err)
	}

	return &PresetManager{presetsDir: presetsDir}, nil
}

func validatePresetName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Field: "name", Message: "preset name cannot be empty"}
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return &ValidationError{Field: "name", Message: "preset name cannot contain path separators"}
	}
	return nil
}

// SavePreset saves a user preset to disk.
func (pm *PresetManager) SavePreset(preset *types.TemplatePreset) error {
	if err := validatePresetName(preset.Name); err != nil {
		return err
	}
	if _, ok := template.LookupPreset(preset.Name); ok {
		return fmt.Errorf("%s: %w", preset.Name, ErrBuiltInPreset)
	}
	if err := ValidateTemplate(preset.Template); err != nil {
		return err
	}

	preset.BuiltIn = false
	if preset.CreatedAt.IsZero() {
		preset.CreatedAt = time.Now()
	}

	filename := filepath.Join(pm.presetsDir, preset.Name+".json")
	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	return nil
}

// LoadPreset returns a built-in preset or loads a user preset from disk.
func (pm *PresetManager) LoadPreset(name string) (*types.TemplatePreset, error) {
	if p, ok := template.LookupPreset(name); ok {
		return &p, nil
	}
	if err := validatePresetName(name); err != nil {
		return nil, err
	}

	filename := filepath.Join(pm.presetsDir, name+".json")
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset types.TemplatePreset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("failed to unmarshal preset: %w", err)
	}

	return &preset, nil
}

// DeletePreset deletes a user preset from disk.
func (pm *PresetManager) DeletePreset(name string) error {
	if _, ok := template.LookupPreset(name); ok {
		return fmt.Errorf("%s: %w", name, ErrBuiltInPreset)
	}
	if err := validatePresetName(name); err != nil {
		return err
	}

	filename := filepath.Join(pm.presetsDir, name+".json")
	if err := os.Remove(filename); err != nil {
		return fmt.Errorf("failed to delete preset file: %w", err)
	}
	return nil
}

// ListPresets lists the built-in presets followed by user presets sorted by name.
func (pm *PresetManager) ListPresets() ([]types.TemplatePreset, error) {
	entries, err := os.ReadDir(pm.presetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets directory: %w", err)
	}

	var user []types.TemplatePreset
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")
		preset, err := pm.LoadPreset(name)
		if err != nil || preset.BuiltIn {
			continue // Skip invalid presets
		}
		user = append(user, *preset)
	}
	sort.Slice(user, func(i, j int) bool { return user[i].Name < user[j].Name })

	return append(template.Presets(), user...), nil
}
