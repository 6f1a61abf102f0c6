// Package natsort orders filenames the way people read them: embedded numbers
// compare by magnitude, so "img2.jpg" comes before "img10.jpg".
package natsort

import (
	"sort"
	"strings"
	"unicode"

	"github.com/On-Jun9/ShutterRename/pkg/types"
)

// Compare returns -1, 0 or 1. It is a total order: names that only differ in
// leading zeros or letter case still compare unequal, with lowercase sorting
// before uppercase ("a.jpg" before "A.jpg").
func Compare(a, b string) int {
	ca, cb := chunks(a), chunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		if c := compareChunk(ca[i], cb[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(ca) < len(cb):
		return -1
	case len(ca) > len(cb):
		return 1
	}
	return compareTie(a, b)
}

// compareTie orders names that compare equal chunk by chunk: by lowercase
// form, then lowercase before uppercase at the first case difference, then by
// bytes.
func compareTie(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	ra, rb := []rune(a), []rune(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if ra[i] == rb[i] {
			continue
		}
		if la, lb := unicode.IsLower(ra[i]), unicode.IsLower(rb[i]); la != lb {
			if la {
				return -1
			}
			return 1
		}
		break
	}
	return strings.Compare(a, b)
}

// Less is Compare(a, b) < 0.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// SortEntries sorts in place by filename. Equal names keep their input order.
func SortEntries(entries []types.FileEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Less(entries[i].Filename, entries[j].Filename)
	})
}

// SortRecords sorts raw records by filename, stable on ties.
func SortRecords(records []types.RawFileRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return Less(records[i].Filename, records[j].Filename)
	})
}

type chunk struct {
	text    string
	numeric bool
}

func chunks(s string) []chunk {
	var out []chunk
	start := 0
	runes := []rune(s)
	for i := 1; i <= len(runes); i++ {
		if i == len(runes) || isDigit(runes[i]) != isDigit(runes[start]) {
			out = append(out, chunk{text: string(runes[start:i]), numeric: isDigit(runes[start])})
			start = i
		}
	}
	return out
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func compareChunk(a, b chunk) int {
	if a.numeric && b.numeric {
		return compareNumeric(a.text, b.text)
	}
	// digits sort before letters, like the numeric collation in file browsers
	if a.numeric != b.numeric {
		if a.numeric {
			return -1
		}
		return 1
	}
	return compareFolded(a.text, b.text)
}

func compareNumeric(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	return strings.Compare(ta, tb)
}

func compareFolded(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		la, lb := unicode.ToLower(ra[i]), unicode.ToLower(rb[i])
		if la != lb {
			if la < lb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ra) < len(rb):
		return -1
	case len(ra) > len(rb):
		return 1
	}
	return 0
}
