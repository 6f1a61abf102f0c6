package metadata

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// exifDateLayout is how EXIF writes DateTimeOriginal.
const exifDateLayout = "2006:01:02 15:04:05"

// XMLExtractor reads Sony NonRealTimeMeta sidecars written next to video clips
// (C0001.MP4 -> C0001M01.XML). Only the capture date is available there.
type XMLExtractor struct{}

func NewXMLExtractor() *XMLExtractor {
	return &XMLExtractor{}
}

type nonRealTimeMeta struct {
	XMLName      xml.Name `xml:"NonRealTimeMeta"`
	CreationDate struct {
		Value string `xml:"value,attr"`
	} `xml:"CreationDate"`
	Device struct {
		Manufacturer string `xml:"manufacturer,attr"`
		ModelName    string `xml:"modelName,attr"`
	} `xml:"Device"`
}

// Extract finds the sidecar for a video file and reads it.
func (e *XMLExtractor) Extract(videoPath string) (*types.ExifData, error) {
	xmlPath := e.findXMLPath(videoPath)
	if xmlPath == "" {
		return nil, errors.New("XML metadata file not found")
	}
	return e.ExtractFromXMLFile(xmlPath)
}

// ExtractFromXMLFile extracts metadata directly from an XML file
func (e *XMLExtractor) ExtractFromXMLFile(xmlPath string) (*types.ExifData, error) {
	data, err := os.ReadFile(xmlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read XML: %w", err)
	}

	var meta nonRealTimeMeta
	if err := xml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	if meta.CreationDate.Value == "" {
		return nil, errors.New("CreationDate not found in XML")
	}

	t, err := time.Parse(time.RFC3339, meta.CreationDate.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %w", err)
	}

	date := t.Format(exifDateLayout)
	out := &types.ExifData{Date: &date}
	if meta.Device.Manufacturer != "" {
		m := meta.Device.Manufacturer
		out.Make = &m
	}
	if meta.Device.ModelName != "" {
		m := meta.Device.ModelName
		out.Camera = &m
	}
	return out, nil
}

func (e *XMLExtractor) findXMLPath(videoPath string) string {
	dir := filepath.Dir(videoPath)
	basename := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	for _, name := range []string{basename + "M01.XML", basename + "M01.xml"} {
		xmlPath := filepath.Join(dir, name)
		if _, err := os.Stat(xmlPath); err == nil {
			return xmlPath
		}
	}

	return ""
}
