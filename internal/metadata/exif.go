package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// ErrUnknownFormat is returned for files that are neither JPEG nor TIFF based.
// Its text is matched by the health classifier, keep it stable.
var ErrUnknownFormat = errors.New("Unknown image format")

func init() {
	exif.RegisterParsers(mknote.All...)
}

var (
	jpegMagic    = []byte{0xFF, 0xD8}
	tiffMagicLE  = []byte{'I', 'I', 0x2A, 0x00}
	tiffMagicBE  = []byte{'M', 'M', 0x00, 0x2A}
	exifDateTags = []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime}
)

type EXIFExtractor struct{}

func NewEXIFExtractor() *EXIFExtractor {
	return &EXIFExtractor{}
}

// Extract reads the template fields from a JPEG or TIFF-based (most RAW) file.
// Fields missing from the file are left nil.
func (e *EXIFExtractor) Extract(path string) (*types.ExifData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header := make([]byte, 4)
	n, err := io.ReadFull(f, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if errors.Is(err, io.EOF) {
			return nil, ErrUnknownFormat
		}
		return nil, err
	}
	if !isKnownContainer(header[:n]) {
		return nil, ErrUnknownFormat
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("no EXIF data: %w", err)
	}

	data := &types.ExifData{
		Date:        dateValue(x),
		Make:        stringValue(x, exif.Make),
		Camera:      stringValue(x, exif.Model),
		Lens:        stringValue(x, exif.LensModel),
		FocalLength: ratValue(x, exif.FocalLength, func(r *big.Rat) string { return formatFloat(r) + "mm" }),
		Aperture:    ratValue(x, exif.FNumber, func(r *big.Rat) string { return "f" + formatFloat(r) }),
		Shutter:     ratValue(x, exif.ExposureTime, formatShutter),
		ISO:         intValue(x, exif.ISOSpeedRatings),
	}
	return data, nil
}

func isKnownContainer(header []byte) bool {
	return bytes.HasPrefix(header, jpegMagic) ||
		bytes.HasPrefix(header, tiffMagicLE) ||
		bytes.HasPrefix(header, tiffMagicBE)
}

func dateValue(x *exif.Exif) *string {
	for _, name := range exifDateTags {
		if v := stringValue(x, name); v != nil {
			return v
		}
	}
	return nil
}

func stringValue(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		return nil
	}
	s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
	if s == "" {
		return nil
	}
	return &s
}

func ratValue(x *exif.Exif, name exif.FieldName, format func(*big.Rat) string) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 || num <= 0 || den < 0 {
		return nil
	}
	s := format(big.NewRat(num, den))
	return &s
}

func intValue(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	v, err := tag.Int(0)
	if err != nil {
		return nil
	}
	s := strconv.Itoa(v)
	return &s
}

func formatFloat(r *big.Rat) string {
	f, _ := r.Float64()
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatShutter prints fractions of a second as "1/250" and longer exposures as "2.5s".
func formatShutter(r *big.Rat) string {
	if r.Cmp(big.NewRat(1, 1)) >= 0 {
		return formatFloat(r) + "s"
	}
	if r.Num().Cmp(big.NewInt(1)) != 0 {
		// 10/300 style values; show the nearest 1/n
		f, _ := r.Float64()
		return "1/" + strconv.FormatFloat(1/f, 'f', 0, 64)
	}
	return r.RatString()
}
