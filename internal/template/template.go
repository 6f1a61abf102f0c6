// Package template expands filename templates such as "{YYYY}-{MM}-{DD}_{Camera}"
// with per-file metadata.
//
// Missing values are replaced by the bare placeholder name ("YYYY", "Lens", ...)
// so incomplete metadata stays visible in the resulting filename.
package template

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// Token is a recognized placeholder, braces included.
type Token string

const (
	TokenYear        Token = "{YYYY}"
	TokenMonth       Token = "{MM}"
	TokenDay         Token = "{DD}"
	TokenHour        Token = "{hh}"
	TokenMinute      Token = "{mm}"
	TokenSecond      Token = "{ss}"
	TokenDate        Token = "{Date}"
	TokenMake        Token = "{Make}"
	TokenCamera      Token = "{Camera}"
	TokenLens        Token = "{Lens}"
	TokenFocalLength Token = "{FocalLength}"
	TokenAperture    Token = "{Aperture}"
	TokenShutter     Token = "{Shutter}"
	TokenISO         Token = "{ISO}"
)

var tokens = []Token{
	TokenYear, TokenMonth, TokenDay, TokenHour, TokenMinute, TokenSecond,
	TokenDate, TokenMake, TokenCamera, TokenLens, TokenFocalLength,
	TokenAperture, TokenShutter, TokenISO,
}

// Tokens returns the closed set of recognized placeholders.
func Tokens() []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	return out
}

// Placeholder returns the token name without braces, used as the missing-value default.
func (t Token) Placeholder() string {
	return strings.TrimSuffix(strings.TrimPrefix(string(t), "{"), "}")
}

// Generate expands format for one file. created is the formatted file creation
// time, used when the metadata carries no capture date.
//
// Generate never panics: if expansion fails the format string itself is returned.
func Generate(format, created string, exif *types.ExifData) (name string) {
	defer func() {
		if r := recover(); r != nil {
			name = format
		}
	}()

	values := Values(created, exif)
	pairs := make([]string, 0, 2*len(tokens))
	for _, tok := range tokens {
		v := Sanitize(values[tok])
		if v == "" {
			// a value made only of dots or spaces sanitizes away
			v = tok.Placeholder()
		}
		pairs = append(pairs, string(tok), v)
	}
	// one replacer so substituted text is never rescanned for tokens
	return strings.NewReplacer(pairs...).Replace(format)
}

// Values resolves every token for one file. Sanitizing is left to the caller.
func Values(created string, exif *types.ExifData) map[Token]string {
	if exif == nil {
		exif = &types.ExifData{}
	}

	dateTime := created
	if v := value(exif.Date); v != "" {
		dateTime = v
	}
	parts := splitDateTime(dateTime)

	values := make(map[Token]string, len(tokens))
	for i, tok := range []Token{TokenYear, TokenMonth, TokenDay, TokenHour, TokenMinute, TokenSecond} {
		values[tok] = tok.Placeholder()
		if i < len(parts) {
			values[tok] = parts[i]
		}
	}

	values[TokenDate] = orPlaceholder(strings.ReplaceAll(value(exif.Date), ":", "."), TokenDate)
	values[TokenMake] = orPlaceholder(value(exif.Make), TokenMake)
	values[TokenCamera] = orPlaceholder(value(exif.Camera), TokenCamera)
	values[TokenLens] = orPlaceholder(value(exif.Lens), TokenLens)
	values[TokenFocalLength] = orPlaceholder(value(exif.FocalLength), TokenFocalLength)
	values[TokenAperture] = orPlaceholder(value(exif.Aperture), TokenAperture)
	values[TokenShutter] = orPlaceholder(value(exif.Shutter), TokenShutter)
	values[TokenISO] = orPlaceholder(value(exif.ISO), TokenISO)
	return values
}

func value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func orPlaceholder(v string, tok Token) string {
	if v == "" {
		return tok.Placeholder()
	}
	return v
}

// splitDateTime splits "2024:01:02 10:00:00" or "2024-01-02 10:00:00" into
// year, month, day, hour, minute, second.
func splitDateTime(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == '-' || unicode.IsSpace(r)
	})
}

const illegalPathChars = `<>:"/\|?*`

// Sanitize turns a metadata value into something safe inside a single path segment.
func Sanitize(s string) string {
	s = norm.NFC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(illegalPathChars, r) {
			return '_'
		}
		return r
	}, s)
	return strings.TrimRight(s, ". ")
}

var bracedWord = regexp.MustCompile(`\{[^{}]*\}`)

// Unknown lists brace-delimited words in format that are not recognized tokens.
// They are left untouched by Generate.
func Unknown(format string) []string {
	known := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		known[string(tok)] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, m := range bracedWord.FindAllString(format, -1) {
		if !known[m] && !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
