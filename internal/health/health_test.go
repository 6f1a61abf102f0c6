package health

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/On-Jun9/ShutterRename/internal/i18n"
	"github.com/On-Jun9/ShutterRename/pkg/types"
)

func str(s string) *string { return &s }

func fullExif() *types.ExifData {
	return &types.ExifData{
		Date:        str("2024:01:02 10:00:00"),
		Make:        str("FUJIFILM"),
		Camera:      str("X100V"),
		Lens:        str("23mm F2"),
		FocalLength: str("23mm"),
		Aperture:    str("f2"),
		Shutter:     str("1/250"),
		ISO:         str("160"),
	}
}

// TestClassify는 테스트 코드 동작을 검증하거나 보조합니다.
func TestClassify(t *testing.T) {
	missingLens := fullExif()
	missingLens.Lens = nil

	emptyLens := fullExif()
	emptyLens.Lens = str("")

	tests := []struct {
		name       string
		rec        types.RawFileRecord
		wantStatus types.HealthStatus
		wantMsg    string
	}{
		{
			name:       "complete metadata is ok",
			rec:        types.RawFileRecord{Exif: fullExif()},
			wantStatus: types.HealthOK,
			wantMsg:    "",
		},
		{
			name:       "absent field is warning",
			rec:        types.RawFileRecord{Exif: missingLens},
			wantStatus: types.HealthWarning,
			wantMsg:    "Missing exif data",
		},
		{
			name:       "empty string is still present",
			rec:        types.RawFileRecord{Exif: emptyLens},
			wantStatus: types.HealthOK,
			wantMsg:    "",
		},
		{
			name:       "no metadata at all is warning",
			rec:        types.RawFileRecord{},
			wantStatus: types.HealthWarning,
			wantMsg:    "Missing exif data",
		},
		{
			name:       "unknown format gets canonical message",
			rec:        types.RawFileRecord{ExifError: "Unknown image format"},
			wantStatus: types.HealthError,
			wantMsg:    "Unknown image format",
		},
		{
			name:       "other errors pass through",
			rec:        types.RawFileRecord{ExifError: "no EXIF data: EOF", Exif: fullExif()},
			wantStatus: types.HealthError,
			wantMsg:    "no EXIF data: EOF",
		},
	}

	p := i18n.NewPrinter("en")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := Classify(tt.rec, p)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

// TestClassify_UnknownFormatIsLocalized는 테스트 코드 동작을 검증하거나 보조합니다.
func TestClassify_UnknownFormatIsLocalized(t *testing.T) {
	// 알 수 없는 형식 에러는 번역된 메시지를, 그 외 에러는 원문을 그대로 보여줘야 한다.
	p := i18n.NewPrinter("ko")

	status, msg := Classify(types.RawFileRecord{ExifError: "Unknown image format"}, p)
	assert.Equal(t, types.HealthError, status)
	assert.Equal(t, "알 수 없는 이미지 형식", msg)
	assert.NotEqual(t, "Unknown image format", msg)

	_, other := Classify(types.RawFileRecord{ExifError: "failed to open"}, p)
	assert.Equal(t, "failed to open", other)
}

// TestCount는 테스트 코드 동작을 검증하거나 보조합니다.
func TestCount(t *testing.T) {
	ok, warnings, errors := Count([]types.FileEntry{
		{Status: types.HealthOK},
		{Status: types.HealthWarning},
		{Status: types.HealthWarning},
		{Status: types.HealthError},
	})
	assert.Equal(t, 1, ok)
	assert.Equal(t, 2, warnings)
	assert.Equal(t, 1, errors)
}
