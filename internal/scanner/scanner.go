// Package scanner discovers the source files of a rename batch.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/On-Jun9/ShutterRename/internal/metadata"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// Extractor reads template metadata for one file. The second return value is
// the extraction error text, empty on success.
type Extractor interface {
	Extract(path string) (*types.ExifData, string)
}

type Scanner struct {
	includeExt map[string]bool
	extractor  Extractor
}

// New returns a scanner that keeps files whose extension is listed. An empty
// list keeps every regular file. A nil extractor uses metadata.New().
func New(extensions []string, extractor Extractor) *Scanner {
	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}
	if extractor == nil {
		extractor = metadata.New()
	}
	return &Scanner{includeExt: extMap, extractor: extractor}
}

// Scan dispatches on the kind of discovery event.
func (s *Scanner) Scan(src types.Source) ([]types.RawFileRecord, error) {
	if src.Dir != "" {
		return s.ScanDir(src.Dir)
	}
	return s.ScanPaths(src.Paths)
}

// ScanDir lists the files directly inside dir. Subdirectories are not entered.
func (s *Scanner) ScanDir(dir string) ([]types.RawFileRecord, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	dirEntries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var records []types.RawFileRecord
	for _, d := range dirEntries {
		if d.IsDir() || !s.accept(d.Name()) {
			continue
		}
		info, err := d.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		records = append(records, s.record(filepath.Join(abs, d.Name()), info))
	}
	return records, nil
}

// ScanPaths takes files as given and expands directories one level, the way a
// drop of mixed files and folders is handled.
func (s *Scanner) ScanPaths(paths []string) ([]types.RawFileRecord, error) {
	var records []types.RawFileRecord
	seen := make(map[string]bool)

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		if info.IsDir() {
			dirRecords, err := s.ScanDir(abs)
			if err != nil {
				return nil, err
			}
			for _, r := range dirRecords {
				if !seen[r.Path] {
					seen[r.Path] = true
					records = append(records, r)
				}
			}
			continue
		}

		if seen[abs] || !info.Mode().IsRegular() || !s.accept(info.Name()) {
			continue
		}
		seen[abs] = true
		records = append(records, s.record(abs, info))
	}
	return records, nil
}

func (s *Scanner) accept(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if len(s.includeExt) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return s.includeExt[ext]
}

func (s *Scanner) record(path string, info os.FileInfo) types.RawFileRecord {
	exif, exifErr := s.extractor.Extract(path)
	return types.RawFileRecord{
		Path:      path,
		Filename:  info.Name(),
		Size:      info.Size(),
		Created:   info.ModTime(),
		Exif:      exif,
		ExifError: exifErr,
	}
}
