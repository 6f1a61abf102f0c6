package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/On-Jun9/ShutterRename/internal/template"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// HomeEnv overrides the data directory (default ~/.shutterrename).
const HomeEnv = "SHUTTERRENAME_HOME"

type Config struct {
	Template          string               `yaml:"template" json:"template"`
	KeepExtension     bool                 `yaml:"keep_extension" json:"keep_extension"`
	IncludeExtensions []string             `yaml:"include_extensions" json:"include_extensions"`
	ConflictPolicy    types.ConflictPolicy `yaml:"conflict_policy" json:"conflict_policy"`
	Language          string               `yaml:"language" json:"language"`
	Jobs              int                  `yaml:"jobs" json:"jobs"`
	DryRun            bool                 `yaml:"dry_run" json:"dry_run"`
	Verify            bool                 `yaml:"verify" json:"verify"`
	HashVerify        bool                 `yaml:"hash_verify" json:"hash_verify"`
	JournalFile       string               `yaml:"journal_file" json:"journal_file"`
	LogFile           string               `yaml:"log_file" json:"log_file"`
	LogJSON           bool                 `yaml:"log_json" json:"log_json"`
}

// DataDir returns where settings, presets, history, the journal and the log live.
func DataDir() string {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".shutterrename")
}

// DefaultExtensions are the image (and sidecar-backed video) types picked up by default.
func DefaultExtensions() []string {
	return []string{
		"jpg", "jpeg", "tif", "tiff", "heic", "heif", "png",
		"raw", "arw", "cr2", "cr3", "nef", "nrw", "orf", "rw2", "raf", "dng", "pef", "srw",
		"mp4", "mov", "mxf",
	}
}

func DefaultConfig() *Config {
	jobs := runtime.NumCPU()
	if jobs < 1 {
		jobs = 4
	}

	dataDir := DataDir()

	return &Config{
		Template:          template.DefaultTemplate,
		KeepExtension:     false,
		IncludeExtensions: DefaultExtensions(),
		ConflictPolicy:    types.ConflictPolicyFail,
		Language:          "en",
		Jobs:              jobs,
		DryRun:            false,
		Verify:            true,
		HashVerify:        false,
		JournalFile:       filepath.Join(dataDir, "journal.json"),
		LogFile:           filepath.Join(dataDir, "shutterrename.log"),
		LogJSON:           false,
	}
}

func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := ValidateTemplate(c.Template); err != nil {
		return err
	}

	switch c.ConflictPolicy {
	case "":
		c.ConflictPolicy = types.ConflictPolicyFail
	case types.ConflictPolicyFail, types.ConflictPolicySkip:
	default:
		return &ValidationError{Field: "conflict_policy", Message: "must be fail or skip"}
	}

	switch c.Language {
	case "":
		c.Language = "en"
	case "en", "ko":
	default:
		return &ValidationError{Field: "language", Message: "must be en or ko"}
	}

	if c.Jobs < 1 {
		c.Jobs = 1
	}

	exts := c.IncludeExtensions[:0]
	for _, ext := range c.IncludeExtensions {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	c.IncludeExtensions = exts

	dataDir := DataDir()

	if c.LogFile == "" {
		c.LogFile = filepath.Join(dataDir, "shutterrename.log")
	}
	if c.JournalFile == "" {
		c.JournalFile = filepath.Join(dataDir, "journal.json")
	}

	return nil
}

// ValidateTemplate checks that format expands to a single filename inside the
// batch folder. Metadata values are sanitized by the template engine, so only
// the literal text of the template is checked here.
func ValidateTemplate(format string) error {
	trimmed := strings.TrimSpace(format)
	if trimmed == "" {
		return &ValidationError{Field: "template", Message: "template is required"}
	}
	if err := validatePath(format); err != nil {
		return &ValidationError{Field: "template", Message: err.Error()}
	}
	if strings.ContainsAny(format, `/\`) {
		return &ValidationError{Field: "template", Message: "template must not contain path separators"}
	}
	if trimmed == "." || trimmed == ".." {
		return &ValidationError{Field: "template", Message: "template must not be . or .."}
	}
	return nil
}

// ApplySettings copies persisted user settings over the config.
func (c *Config) ApplySettings(s *types.UserSettings) {
	if s == nil {
		return
	}
	if s.Template != "" {
		c.Template = s.Template
	}
	c.KeepExtension = s.KeepExtension
	if s.Language != "" {
		c.Language = s.Language
	}
	if len(s.IncludeExtensions) > 0 {
		c.IncludeExtensions = s.IncludeExtensions
	}
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
