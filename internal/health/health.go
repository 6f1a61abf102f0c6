// Package health classifies how complete a file's extracted metadata is.
package health

import (
	"golang.org/x/text/message"

	"github.com/On-Jun9/ShutterRename/internal/i18n"
	"github.com/On-Jun9/ShutterRename/internal/metadata"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// Classify returns the status and user-facing message for one record.
//
// An extraction error is ERROR: the well-known unknown-format error gets the
// translated message, any other error text is passed through verbatim.
// A successful extraction with any absent field is WARNING. Otherwise OK.
func Classify(rec types.RawFileRecord, p *message.Printer) (types.HealthStatus, string) {
	if rec.ExifError != "" {
		if rec.ExifError == metadata.ErrUnknownFormat.Error() {
			return types.HealthError, i18n.T(p, i18n.UnknownImageFormat)
		}
		return types.HealthError, rec.ExifError
	}

	if rec.Exif == nil {
		return types.HealthWarning, i18n.T(p, i18n.MissingExifData)
	}
	for _, field := range rec.Exif.Fields() {
		if field == nil {
			return types.HealthWarning, i18n.T(p, i18n.MissingExifData)
		}
	}

	return types.HealthOK, ""
}

// Count tallies entries by status.
func Count(entries []types.FileEntry) (ok, warnings, errors int) {
	for _, e := range entries {
		switch e.Status {
		case types.HealthOK:
			ok++
		case types.HealthWarning:
			warnings++
		case types.HealthError:
			errors++
		}
	}
	return ok, warnings, errors
}
