package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/On-Jun9/ShutterRename/internal/template"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

const (
	maxHistoryEntries = 100
	maxRecentDirs     = 10
)

// UserDataManager manages user data (settings, recent folders, rename history).
type UserDataManager struct {
	dataDir string
}

// validatePath checks for potentially malicious characters in paths and
// templates shown by the web UI. Prevents XSS by rejecting HTML/script patterns.
// Note: <> alone are allowed as they're valid in Unix filenames.
func validatePath(path string) error {
	if path == "" {
		return nil
	}

	lowerPath := strings.ToLower(path)

	htmlTagPatterns := []string{
		"<script",
		"</script",
		"<iframe",
		"<object",
		"<embed",
		"<img",
	}

	for _, pattern := range htmlTagPatterns {
		if strings.Contains(lowerPath, pattern) {
			return fmt.Errorf("path contains HTML tag pattern: %s", pattern)
		}
	}

	dangerousPatterns := []string{
		"javascript:",
		"onerror=",
		"onload=",
		"onclick=",
		"onmouseover=",
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerPath, pattern) {
			return fmt.Errorf("path contains potentially malicious pattern: %s", pattern)
		}
	}

	if len(path) > 4096 {
		return fmt.Errorf("path too long (max 4096 characters)")
	}

	return nil
}

// NewUserDataManager creates a user data manager rooted at DataDir().
func NewUserDataManager() (*UserDataManager, error) {
	dataDir := DataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &UserDataManager{dataDir: dataDir}, nil
}

// writeJSON marshals v and writes it atomically (temp file, then rename).
func (m *UserDataManager) writeJSON(name, what string, v any) error {
	filename := filepath.Join(m.dataDir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", what, err)
	}

	tmpFile := filename + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", what, err)
	}
	if err := os.Rename(tmpFile, filename); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename %s file: %w", what, err)
	}

	return nil
}

// readJSON reports found=false when the file does not exist.
func (m *UserDataManager) readJSON(name, what string, v any) (found bool, err error) {
	data, err := os.ReadFile(filepath.Join(m.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s file: %w", what, err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", what, err)
	}
	return true, nil
}

// DefaultSettings is what LoadSettings returns before anything was saved.
func DefaultSettings() *types.UserSettings {
	return &types.UserSettings{
		Template:          template.DefaultTemplate,
		KeepExtension:     false,
		Language:          "en",
		IncludeExtensions: DefaultExtensions(),
		UpdatedAt:         time.Now(),
	}
}

// SaveSettings saves user settings to disk.
func (m *UserDataManager) SaveSettings(settings *types.UserSettings) error {
	if err := ValidateTemplate(settings.Template); err != nil {
		return err
	}
	switch settings.Language {
	case "", "en", "ko":
	default:
		return &ValidationError{Field: "language", Message: "must be en or ko"}
	}

	settings.UpdatedAt = time.Now()
	return m.writeJSON("settings.json", "settings", settings)
}

// LoadSettings loads user settings from disk.
// Returns default settings if file doesn't exist.
func (m *UserDataManager) LoadSettings() (*types.UserSettings, error) {
	var settings types.UserSettings
	found, err := m.readJSON("settings.json", "settings", &settings)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultSettings(), nil
	}
	return &settings, nil
}

// SaveTemplate updates only the persisted template, keeping the other settings.
func (m *UserDataManager) SaveTemplate(format string) error {
	settings, err := m.LoadSettings()
	if err != nil {
		return err
	}
	settings.Template = format
	return m.SaveSettings(settings)
}

// SaveRecentDirs saves the recently opened folders.
func (m *UserDataManager) SaveRecentDirs(recent *types.RecentDirs) error {
	for _, dir := range recent.Dirs {
		if err := validatePath(dir); err != nil {
			return &ValidationError{
				Field:   "recent_dirs",
				Message: fmt.Sprintf("invalid folder: %v", err),
			}
		}
	}

	recent.UpdatedAt = time.Now()
	return m.writeJSON("recent-dirs.json", "recent folders", recent)
}

// LoadRecentDirs returns an empty list if nothing was saved yet.
func (m *UserDataManager) LoadRecentDirs() (*types.RecentDirs, error) {
	var recent types.RecentDirs
	found, err := m.readJSON("recent-dirs.json", "recent folders", &recent)
	if err != nil {
		return nil, err
	}
	if !found {
		return &types.RecentDirs{Dirs: []string{}, UpdatedAt: time.Now()}, nil
	}
	return &recent, nil
}

// AddRecentDir moves dir to the front of the recent folders list.
func (m *UserDataManager) AddRecentDir(dir string) error {
	recent, err := m.LoadRecentDirs()
	if err != nil {
		return err
	}

	dirs := []string{dir}
	for _, d := range recent.Dirs {
		if d != dir {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) > maxRecentDirs {
		dirs = dirs[:maxRecentDirs]
	}
	recent.Dirs = dirs

	return m.SaveRecentDirs(recent)
}

// SaveRenameHistory saves rename history to disk.
func (m *UserDataManager) SaveRenameHistory(history *types.RenameHistory) error {
	history.UpdatedAt = time.Now()
	return m.writeJSON("rename-history.json", "rename history", history)
}

// LoadRenameHistory loads rename history from disk.
// Returns empty history if file doesn't exist.
func (m *UserDataManager) LoadRenameHistory() (*types.RenameHistory, error) {
	var history types.RenameHistory
	found, err := m.readJSON("rename-history.json", "rename history", &history)
	if err != nil {
		return nil, err
	}
	if !found {
		return &types.RenameHistory{
			Entries:   []types.RenameHistoryEntry{},
			UpdatedAt: time.Now(),
		}, nil
	}
	return &history, nil
}

// AddHistoryEntry adds a new entry to rename history with automatic 100-entry limit.
func (m *UserDataManager) AddHistoryEntry(entry types.RenameHistoryEntry) error {
	history, err := m.LoadRenameHistory()
	if err != nil {
		return fmt.Errorf("failed to load rename history: %w", err)
	}

	history.Entries = append([]types.RenameHistoryEntry{entry}, history.Entries...)

	if len(history.Entries) > maxHistoryEntries {
		history.Entries = history.Entries[:maxHistoryEntries]
	}

	if err := m.SaveRenameHistory(history); err != nil {
		return fmt.Errorf("failed to save rename history: %w", err)
	}

	return nil
}
