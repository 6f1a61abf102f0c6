// Package metadata extracts the template fields from image files and video sidecars.
package metadata

import (
	"path/filepath"
	"strings"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

var videoExtensions = map[string]bool{
	"mp4": true, "mov": true, "avi": true, "mkv": true, "mxf": true,
	"m4v": true, "mts": true, "m2ts": true,
}

// IsVideo reports whether ext (without dot, any case) is a video container.
func IsVideo(ext string) bool {
	return videoExtensions[strings.ToLower(ext)]
}

type Extractor struct {
	exif *EXIFExtractor
	xml  *XMLExtractor
}

func New() *Extractor {
	return &Extractor{
		exif: NewEXIFExtractor(),
		xml:  NewXMLExtractor(),
	}
}

// Extract picks the extractor by extension. The error text is what the file
// list shows, so it is returned as a string like the rest of RawFileRecord.
func (e *Extractor) Extract(path string) (*types.ExifData, string) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	var (
		data *types.ExifData
		err  error
	)
	switch {
	case IsVideo(ext):
		data, err = e.xml.Extract(path)
	case ext == "xml":
		data, err = e.xml.ExtractFromXMLFile(path)
	default:
		data, err = e.exif.Extract(path)
	}
	if err != nil {
		return nil, err.Error()
	}
	return data, ""
}
