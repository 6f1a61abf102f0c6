package metadata

import (
	"encoding/binary"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// TestEXIFExtractor_Extract_ReturnsErrorWhenSourceMissing는 테스트 코드 동작을 검증하거나 보조합니다.
func TestEXIFExtractor_Extract_ReturnsErrorWhenSourceMissing(t *testing.T) {
	// 파일 오픈 자체가 실패하면 에러를 반환해야 한다.
	extractor := NewEXIFExtractor()
	_, err := extractor.Extract("/path/does/not/exist.jpg")
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
	if errors.Is(err, ErrUnknownFormat) {
		t.Fatal("missing file must not be reported as unknown format")
	}
}

// TestEXIFExtractor_Extract_UnknownFormat는 테스트 코드 동작을 검증하거나 보조합니다.
func TestEXIFExtractor_Extract_UnknownFormat(t *testing.T) {
	// JPEG/TIFF 헤더가 아니면 Unknown image format 에러여야 한다.
	tmpDir := t.TempDir()
	cases := map[string][]byte{
		"plain.jpg": []byte("not-a-real-jpeg-with-exif"),
		"empty.jpg": {},
		"short.png": {0x89},
	}
	for name, data := range cases {
		filePath := filepath.Join(tmpDir, name)
		if err := os.WriteFile(filePath, data, 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}

		_, err := NewEXIFExtractor().Extract(filePath)
		if !errors.Is(err, ErrUnknownFormat) {
			t.Fatalf("%s: expected ErrUnknownFormat, got %v", name, err)
		}
		if err.Error() != "Unknown image format" {
			t.Fatalf("%s: unexpected message %q", name, err.Error())
		}
	}
}

// TestEXIFExtractor_Extract_ReturnsNoEXIFDataForBrokenJPEG는 테스트 코드 동작을 검증하거나 보조합니다.
func TestEXIFExtractor_Extract_ReturnsNoEXIFDataForBrokenJPEG(t *testing.T) {
	// JPEG 헤더는 있지만 EXIF가 없으면 "no EXIF data" 에러 경로를 타야 한다.
	filePath := filepath.Join(t.TempDir(), "broken.jpg")
	if err := os.WriteFile(filePath, []byte{0xFF, 0xD8, 0xFF, 0xD9}, 0644); err != nil {
		t.Fatalf("failed to write jpeg stub: %v", err)
	}

	_, err := NewEXIFExtractor().Extract(filePath)
	if err == nil {
		t.Fatal("expected no EXIF data error")
	}
	if !strings.Contains(err.Error(), "no EXIF data") {
		t.Fatalf("unexpected error message: %s", err.Error())
	}
}

// TestEXIFExtractor_Extract_ReadsAllFields는 테스트 코드 동작을 검증하거나 보조합니다.
func TestEXIFExtractor_Extract_ReadsAllFields(t *testing.T) {
	// IFD0과 Exif IFD의 태그가 모두 템플릿 필드로 변환되어야 한다.
	filePath := filepath.Join(t.TempDir(), "full.tiff")
	writeTIFF(t, filePath,
		[]ifdEntry{
			asciiEntry(0x010F, "FUJIFILM"),
			asciiEntry(0x0110, "X100V"),
		},
		[]ifdEntry{
			rationalEntry(0x829A, 1, 250), // ExposureTime
			rationalEntry(0x829D, 28, 10), // FNumber
			shortEntry(0x8827, 160),       // ISOSpeedRatings
			asciiEntry(0x9003, "2024:01:02 10:11:12"),
			rationalEntry(0x920A, 23, 1),  // FocalLength
			asciiEntry(0xA434, "23mm F2"), // LensModel
		},
	)

	data, err := NewEXIFExtractor().Extract(filePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"Date":        "2024:01:02 10:11:12",
		"Make":        "FUJIFILM",
		"Camera":      "X100V",
		"Lens":        "23mm F2",
		"FocalLength": "23mm",
		"Aperture":    "f2.8",
		"Shutter":     "1/250",
		"ISO":         "160",
	}
	got := map[string]*string{
		"Date":        data.Date,
		"Make":        data.Make,
		"Camera":      data.Camera,
		"Lens":        data.Lens,
		"FocalLength": data.FocalLength,
		"Aperture":    data.Aperture,
		"Shutter":     data.Shutter,
		"ISO":         data.ISO,
	}
	for field, w := range want {
		if got[field] == nil {
			t.Errorf("%s: expected %q, got nil", field, w)
			continue
		}
		if *got[field] != w {
			t.Errorf("%s: expected %q, got %q", field, w, *got[field])
		}
	}
}

// TestEXIFExtractor_Extract_MissingFieldsStayNil는 테스트 코드 동작을 검증하거나 보조합니다.
func TestEXIFExtractor_Extract_MissingFieldsStayNil(t *testing.T) {
	// 없는 태그는 빈 문자열이 아니라 nil로 남아야 한다.
	filePath := filepath.Join(t.TempDir(), "partial.tiff")
	writeTIFF(t, filePath, []ifdEntry{
		asciiEntry(0x0110, "X100"),
		asciiEntry(0x0132, "2025:12:31 12:34:56"), // DateTime
	}, nil)

	data, err := NewEXIFExtractor().Extract(filePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Camera == nil || *data.Camera != "X100" {
		t.Fatalf("expected camera X100, got %v", data.Camera)
	}
	if data.Date == nil || *data.Date != "2025:12:31 12:34:56" {
		t.Fatalf("expected DateTime fallback, got %v", data.Date)
	}
	if data.Lens != nil || data.Make != nil || data.ISO != nil || data.Shutter != nil {
		t.Fatalf("expected absent fields to be nil: %+v", data)
	}
}

// TestEXIFExtractor_Extract_NoTags는 테스트 코드 동작을 검증하거나 보조합니다.
func TestEXIFExtractor_Extract_NoTags(t *testing.T) {
	// EXIF는 읽히지만 태그가 하나도 없으면 모든 필드가 nil이어야 한다.
	filePath := filepath.Join(t.TempDir(), "no-tags.tiff")
	writeTIFF(t, filePath, nil, nil)

	data, err := NewEXIFExtractor().Extract(filePath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, f := range data.Fields() {
		if f != nil {
			t.Fatalf("field %d: expected nil, got %q", i, *f)
		}
	}
}

// TestFormatShutter는 테스트 코드 동작을 검증하거나 보조합니다.
func TestFormatShutter(t *testing.T) {
	tests := []struct {
		num, den int64
		want     string
	}{
		{1, 250, "1/250"},
		{10, 2500, "1/250"},
		{10, 300, "1/30"},
		{1, 1, "1s"},
		{2, 1, "2s"},
		{5, 2, "2.5s"},
		{30, 1, "30s"},
	}
	for _, tt := range tests {
		if got := formatShutter(big.NewRat(tt.num, tt.den)); got != tt.want {
			t.Errorf("formatShutter(%d/%d) = %q, want %q", tt.num, tt.den, got, tt.want)
		}
	}
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

func asciiEntry(tag uint16, value string) ifdEntry {
	b := append([]byte(value), 0x00)
	return ifdEntry{tag: tag, typ: 2, count: uint32(len(b)), data: b}
}

func shortEntry(tag uint16, value uint16) ifdEntry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, value)
	return ifdEntry{tag: tag, typ: 3, count: 1, data: b}
}

func longEntry(tag uint16, value uint32) ifdEntry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, value)
	return ifdEntry{tag: tag, typ: 4, count: 1, data: b}
}

func rationalEntry(tag uint16, num, den uint32) ifdEntry {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], num)
	binary.LittleEndian.PutUint32(b[4:], den)
	return ifdEntry{tag: tag, typ: 5, count: 1, data: b}
}

// encodeIFD lays out one little-endian IFD at offset start, with out-of-line
// values right after it.
func encodeIFD(entries []ifdEntry, start uint32) []byte {
	sort.Slice(entries, func(i, j int) bool { return entries[i].tag < entries[j].tag })

	dataOffset := start + 2 + 12*uint32(len(entries)) + 4
	var head, tail []byte

	head = binary.LittleEndian.AppendUint16(head, uint16(len(entries)))
	for _, e := range entries {
		head = binary.LittleEndian.AppendUint16(head, e.tag)
		head = binary.LittleEndian.AppendUint16(head, e.typ)
		head = binary.LittleEndian.AppendUint32(head, e.count)
		if len(e.data) <= 4 {
			value := make([]byte, 4)
			copy(value, e.data)
			head = append(head, value...)
			continue
		}
		head = binary.LittleEndian.AppendUint32(head, dataOffset+uint32(len(tail)))
		tail = append(tail, e.data...)
		if len(tail)%2 == 1 {
			tail = append(tail, 0x00)
		}
	}
	head = binary.LittleEndian.AppendUint32(head, 0) // next IFD offset
	return append(head, tail...)
}

// writeTIFF는 테스트 코드 동작을 검증하거나 보조합니다.
func writeTIFF(t *testing.T, path string, ifd0, exifIFD []ifdEntry) {
	t.Helper()

	data := []byte{
		0x49, 0x49, 0x2A, 0x00, // little-endian TIFF header
		0x08, 0x00, 0x00, 0x00, // first IFD offset
	}

	if len(exifIFD) == 0 {
		data = append(data, encodeIFD(ifd0, 8)...)
	} else {
		withPointer := append(append([]ifdEntry(nil), ifd0...), longEntry(0x8769, 0))
		exifStart := 8 + uint32(len(encodeIFD(withPointer, 8)))
		withPointer[len(withPointer)-1] = longEntry(0x8769, exifStart)
		data = append(data, encodeIFD(withPointer, 8)...)
		data = append(data, encodeIFD(exifIFD, exifStart)...)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write tiff: %v", err)
	}
}
