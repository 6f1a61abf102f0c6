package policy

import (
	"fmt"
	"strconv"
)

// ProposedName is a generated name split around where a sequence suffix goes.
// Ext is empty when extensions are not carried over.
type ProposedName struct {
	Stem string
	Ext  string
}

func (n ProposedName) String() string {
	return n.Stem + n.Ext
}

// ResolveDuplicates makes every proposed name unique within the batch.
//
// names must already be in natural order; that order decides which file gets
// which sequence number. Names that occur once are returned unchanged. Names
// that repeat get "_1", "_2", ... zero-padded to the width of the duplicate
// count, so ten copies of "x" become "x_01" through "x_10" only once the
// count itself needs two digits.
//
// A suffixed candidate that equals a name kept unchanged, or one already
// handed out, is skipped and the sequence advances: "x", "x", "x_1" resolve
// to "x_2", "x_3", "x_1".
func ResolveDuplicates(names []ProposedName) []string {
	// pass 1: 0 for a name seen once, n-1 for a name seen n times
	counter := make(map[string]int, len(names))
	for _, n := range names {
		key := n.String()
		if _, ok := counter[key]; ok {
			counter[key]++
		} else {
			counter[key] = 0
		}
	}

	// names that stay as they are; a suffixed name must not land on one of them
	taken := make(map[string]bool, len(names))
	for key, dups := range counter {
		if dups == 0 {
			taken[key] = true
		}
	}

	// pass 2
	out := make([]string, len(names))
	sequence := make(map[string]int)
	for i, n := range names {
		key := n.String()
		dups := counter[key]
		if dups == 0 {
			out[i] = key
			continue
		}
		width := len(strconv.Itoa(dups))
		for {
			sequence[key]++
			candidate := fmt.Sprintf("%s_%0*d%s", n.Stem, width, sequence[key], n.Ext)
			if !taken[candidate] {
				taken[candidate] = true
				out[i] = candidate
				break
			}
		}
	}
	return out
}
