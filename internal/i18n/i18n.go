// Package i18n holds the translated user-facing messages.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The key doubles as the English text.
const (
	UnknownImageFormat = "Unknown image format"
	MissingExifData    = "Missing exif data"
	RenameSuccess      = "Rename Success!"
	NothingToRename    = "No need to perform renaming"
	ReadFilesError     = "Read Files Error"
	ReadFolderError    = "Read Folder Error"
	RenameFilesError   = "Rename Files Error"
	RenameInProgress   = "Rename already in progress"
)

var translations = map[language.Tag]map[string]string{
	language.English: {
		UnknownImageFormat: "Unknown image format",
		MissingExifData:    "Missing exif data",
		RenameSuccess:      "Rename Success!",
		NothingToRename:    "No need to perform renaming",
		ReadFilesError:     "Read Files Error",
		ReadFolderError:    "Read Folder Error",
		RenameFilesError:   "Rename Files Error",
		RenameInProgress:   "Rename already in progress",
	},
	language.Korean: {
		UnknownImageFormat: "알 수 없는 이미지 형식",
		MissingExifData:    "EXIF 데이터 누락",
		RenameSuccess:      "이름 변경 완료!",
		NothingToRename:    "이름을 변경할 파일이 없습니다",
		ReadFilesError:     "파일 읽기 오류",
		ReadFolderError:    "폴더 읽기 오류",
		RenameFilesError:   "파일 이름 변경 오류",
		RenameInProgress:   "이미 이름 변경이 진행 중입니다",
	},
}

var (
	cat     = buildCatalog()
	matcher = language.NewMatcher([]language.Tag{language.English, language.Korean})
)

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, msgs := range translations {
		for key, text := range msgs {
			// keys are fixed above, SetString only fails on malformed tags
			_ = b.SetString(tag, key, text)
		}
	}
	return b
}

// NewPrinter returns a printer for lang ("en", "ko", "ko-KR", ...).
// Unknown or empty languages fall back to English.
func NewPrinter(lang string) *message.Printer {
	tag := language.English
	if lang != "" {
		if parsed, err := language.Parse(lang); err == nil {
			_, idx, _ := matcher.Match(parsed)
			tag = []language.Tag{language.English, language.Korean}[idx]
		}
	}
	return message.NewPrinter(tag, message.Catalog(cat))
}

// T translates key with p. A nil printer yields the English key.
func T(p *message.Printer, key string) string {
	if p == nil {
		return key
	}
	return p.Sprintf(key)
}
