package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/On-Jun9/ShutterRename/internal/config"
	"github.com/On-Jun9/ShutterRename/internal/i18n"
	"github.com/On-Jun9/ShutterRename/internal/pipeline"
	"github.com/On-Jun9/ShutterRename/internal/policy"
	"github.com/On-Jun9/ShutterRename/internal/template"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type APIErrorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIErrorResponse{Message: message})
}

func writeValidationError(w http.ResponseWriter, field, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(ValidationError{
		Field:   field,
		Message: message,
	})
}

// writeConfigError maps config.ValidationError to 400 and anything else to 500.
func writeConfigError(w http.ResponseWriter, err error) {
	var validationErr *config.ValidationError
	if errors.As(err, &validationErr) {
		writeValidationError(w, validationErr.Field, validationErr.Message)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, err.Error())
}

type BrowseResponse struct {
	Path    string     `json:"path"`
	Entries []DirEntry `json:"entries"`
	Error   string     `json:"error,omitempty"`
}

type DirEntry struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = homeDir
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeAPIError(w, http.StatusNotFound, err.Error())
			return
		}
		if errors.Is(err, os.ErrPermission) {
			writeAPIError(w, http.StatusForbidden, err.Error())
			return
		}
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var dirEntries []DirEntry
	for _, entry := range entries {
		if entry.Name()[0] == '.' {
			continue
		}
		dirEntries = append(dirEntries, DirEntry{
			Name:  entry.Name(),
			Path:  filepath.Join(path, entry.Name()),
			IsDir: entry.IsDir(),
		})
	}

	writeJSON(w, BrowseResponse{
		Path:    path,
		Entries: dirEntries,
	})
}

// loadConfig is the default config with the saved user settings applied.
func loadConfig() (*config.Config, error) {
	m, err := config.NewUserDataManager()
	if err != nil {
		return nil, err
	}
	settings, err := m.LoadSettings()
	if err != nil {
		return nil, err
	}

	cfg := config.DefaultConfig()
	cfg.ApplySettings(settings)
	return cfg, nil
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := loadConfig()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, cfg)
}

type TokensResponse struct {
	Tokens  []template.Token       `json:"tokens"`
	Presets []types.TemplatePreset `json:"presets"`
}

func (s *Server) handleTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, TokensResponse{
		Tokens:  template.Tokens(),
		Presets: template.Presets(),
	})
}

// BatchRequest selects the files and the template for /files and /rename.
// Empty fields fall back to the saved settings.
type BatchRequest struct {
	Dir            string               `json:"dir"`
	Paths          []string             `json:"paths"`
	Template       string               `json:"template"`
	KeepExtension  *bool                `json:"keep_extension"`
	Language       string               `json:"language"`
	ConflictPolicy types.ConflictPolicy `json:"conflict_policy"`
	DryRun         bool                 `json:"dry_run"`
}

func (req *BatchRequest) source() types.Source {
	return types.Source{Dir: req.Dir, Paths: req.Paths}
}

func (req *BatchRequest) config() (*config.Config, error) {
	if req.Dir == "" && len(req.Paths) == 0 {
		return nil, &config.ValidationError{Field: "source", Message: "dir or paths is required"}
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if req.Template != "" {
		cfg.Template = req.Template
	}
	if req.KeepExtension != nil {
		cfg.KeepExtension = *req.KeepExtension
	}
	if req.Language != "" {
		cfg.Language = req.Language
	}
	if req.ConflictPolicy != "" {
		cfg.ConflictPolicy = req.ConflictPolicy
	}
	cfg.DryRun = req.DryRun

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeBatch writes the error response itself and reports ok=false on failure.
func decodeBatch(w http.ResponseWriter, r *http.Request) (*config.Config, types.Source, bool) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return nil, types.Source{}, false
	}

	cfg, err := req.config()
	if err != nil {
		writeConfigError(w, err)
		return nil, types.Source{}, false
	}
	return cfg, req.source(), true
}

type FilesResponse struct {
	Entries       []types.FileEntry `json:"entries"`
	Planned       int               `json:"planned"`
	Skipped       []string          `json:"skipped,omitempty"`
	Conflicts     []string          `json:"conflicts,omitempty"`
	UnknownTokens []string          `json:"unknown_tokens,omitempty"`
	Pending       bool              `json:"pending"`
}

// handleFiles loads the source and returns the preview without renaming.
func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	cfg, source, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer p.Close()
	p.Logger().SetConsole(nil)

	entries, err := p.Load(r.Context(), source)
	if err != nil {
		msg := i18n.T(p.Printer(), i18n.ReadFilesError)
		if source.Dir != "" {
			msg = i18n.T(p.Printer(), i18n.ReadFolderError)
		}
		status := http.StatusInternalServerError
		if errors.Is(err, os.ErrNotExist) {
			status = http.StatusNotFound
		}
		writeAPIError(w, status, msg+": "+err.Error())
		return
	}

	resp := FilesResponse{
		Entries:       entries,
		UnknownTokens: template.Unknown(cfg.Template),
		Pending:       p.Pending(),
	}
	if resp.Entries == nil {
		resp.Entries = []types.FileEntry{}
	}

	plan, skipped, err := p.Plan(entries)
	var conflictErr *policy.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		for _, e := range conflictErr.Entries {
			resp.Conflicts = append(resp.Conflicts, e.Final)
		}
	case err != nil:
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	default:
		resp.Planned = len(plan.Entries)
		for _, e := range skipped {
			resp.Skipped = append(resp.Skipped, e.Current)
		}
	}

	writeJSON(w, resp)
}

// handleRename starts one batch in the background. A second submission while
// one is running is rejected with 409.
func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	if !s.guard.TryAcquire() {
		p := i18n.NewPrinter(r.URL.Query().Get("lang"))
		writeAPIError(w, http.StatusConflict, i18n.T(p, i18n.RenameInProgress))
		return
	}

	cfg, source, ok := decodeBatch(w, r)
	if !ok {
		s.guard.Release()
		return
	}

	writeJSON(w, map[string]string{"status": "started"})

	go func() {
		defer s.guard.Release()
		defer func() {
			if r := recover(); r != nil {
				fmt.Printf("PANIC RECOVERED: %v\n", r)
				s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: fmt.Sprintf("Internal Server Error: %v", r)})
			}
		}()

		p, err := pipeline.New(cfg)
		if err != nil {
			s.broadcastProgress(pipeline.ProgressUpdate{Type: "error", Error: err.Error()})
			return
		}
		defer p.Close()
		p.Logger().SetConsole(nil)

		// Run reports failures through the progress callback
		p.SetProgressCallback(s.broadcastProgress)
		if _, err := p.Run(context.Background(), source); err != nil {
			fmt.Printf("Rename run failed: %v\n", err)
		}
	}()
}

func (s *Server) broadcastJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.hub.broadcast <- data
}

func (s *Server) broadcastProgress(update pipeline.ProgressUpdate) {
	s.broadcastJSON(update)
}

// Preset-related handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	presets, err := pm.ListPresets()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, presets)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var preset types.TemplatePreset
	if err := json.NewDecoder(r.Body).Decode(&preset); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := pm.SavePreset(&preset); err != nil {
		if errors.Is(err, config.ErrBuiltInPreset) {
			writeAPIError(w, http.StatusConflict, err.Error())
			return
		}
		writeConfigError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeAPIError(w, http.StatusBadRequest, "preset name is required")
		return
	}

	pm, err := config.NewPresetManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := pm.DeletePreset(name); err != nil {
		switch {
		case errors.Is(err, config.ErrBuiltInPreset):
			writeAPIError(w, http.StatusConflict, err.Error())
		case errors.Is(err, os.ErrNotExist):
			writeAPIError(w, http.StatusNotFound, err.Error())
		default:
			writeConfigError(w, err)
		}
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

// UserData-related handlers (settings, recent folders, rename history)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	m, err := config.NewUserDataManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	settings, err := m.LoadSettings()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, settings)
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings types.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	m, err := config.NewUserDataManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := m.SaveSettings(&settings); err != nil {
		writeConfigError(w, err)
		return
	}

	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleGetRecentDirs(w http.ResponseWriter, r *http.Request) {
	m, err := config.NewUserDataManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	recent, err := m.LoadRecentDirs()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, recent)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	// Get limit from query parameter (default 20, max 100)
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil {
			limit = parsedLimit
			if limit > 100 {
				limit = 100
			} else if limit < 1 {
				limit = 20
			}
		}
	}

	m, err := config.NewUserDataManager()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	history, err := m.LoadRenameHistory()
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Return only the requested number of entries (already sorted newest first)
	if len(history.Entries) > limit {
		history.Entries = history.Entries[:limit]
	}

	writeJSON(w, history)
}

// Version handler

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"version": s.version})
}
