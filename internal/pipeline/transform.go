package pipeline

import (
	"path/filepath"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/message"

	"github.com/On-Jun9/ShutterRename/internal/health"
	"github.com/On-Jun9/ShutterRename/internal/natsort"
	"github.com/On-Jun9/ShutterRename/internal/policy"
	"github.com/On-Jun9/ShutterRename/internal/template"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

const createdLayout = "2006-01-02 15:04:05"

type Options struct {
	// KeepExtension appends the original extension to every generated name,
	// with duplicate suffixes inserted before it.
	KeepExtension bool
	// Printer localizes status messages. nil means English.
	Printer *message.Printer
}

// Transform sorts the records naturally, classifies their metadata, fills the
// template and resolves duplicate names. It does no I/O and the records are
// not modified.
func Transform(records []types.RawFileRecord, format string, opts Options) []types.FileEntry {
	sorted := append([]types.RawFileRecord(nil), records...)
	natsort.SortRecords(sorted)

	entries := make([]types.FileEntry, len(sorted))
	names := make([]policy.ProposedName, len(sorted))

	for i, rec := range sorted {
		status, msg := health.Classify(rec, opts.Printer)
		created := ""
		if !rec.Created.IsZero() {
			created = rec.Created.Format(createdLayout)
		}

		dir := filepath.Dir(rec.Path)
		filename := rec.Filename
		if filename == "" {
			filename = filepath.Base(rec.Path)
		}

		entries[i] = types.FileEntry{
			Created:       created,
			Path:          rec.Path,
			Dir:           dir,
			Filename:      filename,
			Size:          humanize.Bytes(uint64(max(rec.Size, 0))),
			SizeBytes:     rec.Size,
			Status:        status,
			StatusMessage: msg,
			Exif:          rec.Exif,
		}

		names[i] = policy.ProposedName{Stem: template.Generate(format, created, rec.Exif)}
		if opts.KeepExtension {
			names[i].Ext = filepath.Ext(filename)
		}
	}

	for i, name := range policy.ResolveDuplicates(names) {
		entries[i].NewFilename = name
	}
	return entries
}
