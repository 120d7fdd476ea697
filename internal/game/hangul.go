package game

import "strings"

const (
	hangulBase  = 0xAC00
	hangulLast  = 0xD7A3
	jungCount   = 21
	jongCount   = 28
	choseongCP  = 0x1100
	jungseongCP = 0x1161
	jongseongCP = 0x11A7
)

// decompose replaces each precomposed Hangul syllable with its conjoining
// jamo so one wrong vowel costs one rune instead of a whole syllable.
// Other runes are lower-cased and kept.
func decompose(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range strings.ToLower(s) {
		if r < hangulBase || r > hangulLast {
			b.WriteRune(r)
			continue
		}
		idx := r - hangulBase
		b.WriteRune(choseongCP + idx/(jungCount*jongCount))
		b.WriteRune(jungseongCP + (idx%(jungCount*jongCount))/jongCount)
		if t := idx % jongCount; t != 0 {
			b.WriteRune(jongseongCP + t)
		}
	}
	return b.String()
}
