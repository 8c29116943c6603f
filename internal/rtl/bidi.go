// Package rtl detects the direction of text and orders shaped runs for
// drawing.
package rtl

import "golang.org/x/text/unicode/bidi"

// Direction of a run of text.
type Direction int

const (
	Neutral Direction = iota
	LTR
	RTL
)

func (d Direction) String() string {
	switch d {
	case LTR:
		return "ltr"
	case RTL:
		return "rtl"
	}
	return "neutral"
}

func classOf(r rune) bidi.Class {
	p, _ := bidi.LookupRune(r)
	return p.Class()
}

// Classify returns the direction of the first strong character of s.
// Numbers count as left-to-right; punctuation and spaces are neutral.
func Classify(s string) Direction {
	weak := Neutral
	for _, r := range s {
		switch classOf(r) {
		case bidi.R, bidi.AL:
			return RTL
		case bidi.L:
			return LTR
		case bidi.EN, bidi.AN:
			weak = LTR
		}
	}
	return weak
}

// IsRTL reports whether s contains any right-to-left character.
func IsRTL(s string) bool {
	for _, r := range s {
		if c := classOf(r); c == bidi.R || c == bidi.AL {
			return true
		}
	}
	return false
}

// Level returns the embedding level of a run of direction d inside a
// paragraph with the given base direction.
func Level(d, base Direction) int {
	switch {
	case base == RTL && d == RTL:
		return 1
	case base == RTL:
		return 2
	case d == RTL:
		return 1
	}
	return 0
}

// Reorder returns the visual order of runs given their embedding levels in
// logical order: from the highest level down to the lowest odd one, every
// maximal sequence at that level or above is reversed.
func Reorder(levels []int) []int {
	order := make([]int, len(levels))
	for i := range order {
		order[i] = i
	}
	if len(levels) == 0 {
		return order
	}
	hi, lowOdd := 0, -1
	for _, l := range levels {
		hi = max(hi, l)
		if l%2 == 1 && (lowOdd < 0 || l < lowOdd) {
			lowOdd = l
		}
	}
	if lowOdd < 0 {
		return order
	}
	lv := append([]int(nil), levels...)
	for l := hi; l >= lowOdd; l-- {
		for i := 0; i < len(lv); {
			if lv[i] < l {
				i++
				continue
			}
			j := i
			for j < len(lv) && lv[j] >= l {
				j++
			}
			for a, b := i, j-1; a < b; a, b = a+1, b-1 {
				order[a], order[b] = order[b], order[a]
				lv[a], lv[b] = lv[b], lv[a]
			}
			i = j
		}
	}
	return order
}
