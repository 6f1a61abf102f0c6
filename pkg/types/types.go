// Package types defines core data structures used across ShutterRename modules.
package types

import (
	"time"
)

// ExifData holds the metadata fields a filename template can use.
// A nil field means the value is absent, which is different from an empty string.
type ExifData struct {
	// Date is the capture time as written in EXIF (e.g., "2024:01:02 10:00:00").
	Date        *string `json:"Date"`
	Make        *string `json:"Make"`
	Camera      *string `json:"Camera"`
	Lens        *string `json:"Lens"`
	FocalLength *string `json:"FocalLength"`
	Aperture    *string `json:"Aperture"`
	Shutter     *string `json:"Shutter"`
	ISO         *string `json:"ISO"`
}

// Fields returns every field in template order.
func (e *ExifData) Fields() []*string {
	return []*string{e.Date, e.Make, e.Camera, e.Lens, e.FocalLength, e.Aperture, e.Shutter, e.ISO}
}

// RawFileRecord is a discovered source file. It is never mutated after discovery.
type RawFileRecord struct {
	// Path is the absolute path to the source file.
	Path string `json:"pathname"`
	// Filename is the base filename.
	Filename string `json:"filename"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
	// Created is the file creation (or modification, where creation is unavailable) time.
	Created time.Time `json:"created"`
	// Exif is nil when extraction failed.
	Exif *ExifData `json:"exifData,omitempty"`
	// ExifError contains the extraction error message if any.
	ExifError string `json:"exifError,omitempty"`
}

// HealthStatus classifies how complete a file's metadata is.
type HealthStatus string

const (
	HealthOK      HealthStatus = "ok"
	HealthWarning HealthStatus = "warning"
	HealthError   HealthStatus = "error"
)

// FileEntry is a batch-scoped view of a source file with its proposed name.
type FileEntry struct {
	// Created is the formatted creation time ("2006-01-02 15:04:05").
	Created string `json:"created"`
	// Path is the full source path.
	Path string `json:"pathname"`
	// Dir is the directory that contains the file.
	Dir string `json:"dirname"`
	// Filename is the original base filename.
	Filename string `json:"filename"`
	// NewFilename stays empty until duplicates are resolved.
	NewFilename string `json:"newFilename"`
	// Size is the human readable size (e.g., "4.2 MB").
	Size          string       `json:"size"`
	SizeBytes     int64        `json:"sizeBytes"`
	Status        HealthStatus `json:"exifStatus"`
	StatusMessage string       `json:"exifMsg"`
	Exif          *ExifData    `json:"exifData,omitempty"`
}

// NeedsRename reports whether the finalized name differs from the original one.
func (f FileEntry) NeedsRename() bool {
	return f.NewFilename != "" && f.NewFilename != f.Filename
}

// RenamePlanEntry is a single two-hop rename: Current -> Staging -> Final.
type RenamePlanEntry struct {
	Current string `json:"current"`
	Final   string `json:"final"`
	Staging string `json:"staging"`
	// Size is the source size in bytes, used by post-commit verification.
	Size int64 `json:"size"`
}

// RenamePlan is the ordered execution plan for one batch.
type RenamePlan struct {
	// Token is the batch-wide prefix used for every staging path.
	Token   string            `json:"token"`
	Entries []RenamePlanEntry `json:"entries"`
}

// Empty reports the "nothing to rename" outcome.
func (p *RenamePlan) Empty() bool {
	return p == nil || len(p.Entries) == 0
}

// Source describes one discovery event: a chosen directory or explicitly dropped paths.
type Source struct {
	Dir   string   `json:"dir,omitempty"`
	Paths []string `json:"paths,omitempty"`
}

// ConflictPolicy defines how to handle a target name already taken by a file outside the batch.
type ConflictPolicy string

const (
	ConflictPolicyFail ConflictPolicy = "fail"
	ConflictPolicySkip ConflictPolicy = "skip"
)

// RenameSummary contains statistics for a completed run.
type RenameSummary struct {
	TotalFiles int           `json:"total_files"`
	Planned    int           `json:"planned"`
	Renamed    int           `json:"renamed"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	RolledBack int           `json:"rolled_back"`
	Warnings   int           `json:"warnings"`
	Errors     int           `json:"errors"`
	Bytes      int64         `json:"bytes"`
	DryRun     bool          `json:"dry_run"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}

// TemplatePreset is a named filename template.
type TemplatePreset struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Template    string    `json:"template"`
	BuiltIn     bool      `json:"built_in"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserSettings represents the settings persisted between runs.
type UserSettings struct {
	Template          string    `json:"template"`
	KeepExtension     bool      `json:"keep_extension"`
	Language          string    `json:"language"`
	IncludeExtensions []string  `json:"include_extensions"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// RecentDirs lists recently opened folders, most recent first.
type RecentDirs struct {
	Dirs      []string  `json:"dirs"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RenameStatus represents the outcome of a rename batch.
type RenameStatus string

const (
	RenameStatusSuccess RenameStatus = "success"
	RenameStatusFailed  RenameStatus = "failed"
	RenameStatusNoop    RenameStatus = "noop"
)

// RenameHistoryEntry represents a single rename batch record.
type RenameHistoryEntry struct {
	ID        string        `json:"id"`
	Source    Source        `json:"source"`
	Template  string        `json:"template"`
	Summary   RenameSummary `json:"summary"`
	Status    RenameStatus  `json:"status"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// RenameHistory stores the collection of rename history entries.
type RenameHistory struct {
	Entries   []RenameHistoryEntry `json:"entries"`
	UpdatedAt time.Time            `json:"updated_at"`
}
