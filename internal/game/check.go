// Package game grades children's spoken answers in the word games: animal
// guessing, twenty questions and five questions.
//
// Animal guessing and twenty questions are graded locally. Five questions
// asks an LLM judge because partial guesses ("사자인 것 같아") count as
// answers there.
package game

import (
	"strings"
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// DefaultFuzzyThreshold is the minimum Jaro-Winkler score, computed on
// jamo-decomposed text, for a fuzzy animal match.
const DefaultFuzzyThreshold = 0.88

// Notes attached to an [AnimalResult].
const (
	NoteNegation = "negation_detected"
	NoteFuzzy    = "fuzzy_match"
)

// negations are markers that, right after the answer, turn a mention into a denial.
var negations = []string{"아니", "아닌", "아냐"}

// particles may sit between the answer and a negation without a space ("사자가 아니야").
var particles = []string{"는", "은", "가", "이", "도", "를", "을"}

// AnimalResult is the grade for one animal-guessing utterance.
type AnimalResult struct {
	Correct bool
	// Matched is the answer when it was recognised and not denied.
	Matched string
	Note    string
}

// Checker grades the locally-evaluated games. The zero value is not usable;
// construct with [NewChecker].
type Checker struct {
	threshold float64
}

// Option configures a [Checker].
type Option func(*Checker)

// WithFuzzyThreshold overrides [DefaultFuzzyThreshold].
func WithFuzzyThreshold(t float64) Option {
	return func(c *Checker) {
		if t > 0 && t <= 1 {
			c.threshold = t
		}
	}
}

// NewChecker returns a [Checker].
func NewChecker(opts ...Option) *Checker {
	c := &Checker{threshold: DefaultFuzzyThreshold}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CheckAnimal grades utterance against answer. An exact mention wins;
// otherwise the closest utterance token is compared with Jaro-Winkler. A
// negation right after the mention makes the answer incorrect.
func (c *Checker) CheckAnimal(utterance, answer string) AnimalResult {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return AnimalResult{}
	}
	u := strings.ToLower(utterance)
	a := strings.ToLower(answer)

	rest, found := after(u, a)
	note := ""
	if !found {
		rest, found = c.fuzzyAfter(u, a)
		note = NoteFuzzy
	}
	if !found {
		return AnimalResult{}
	}
	if negatedAfter(rest) {
		return AnimalResult{Note: NoteNegation}
	}
	return AnimalResult{Correct: true, Matched: answer, Note: note}
}

// CheckTwentyQ reports whether utterance mentions answer. Case and spacing
// are ignored.
func (c *Checker) CheckTwentyQ(utterance, answer string) bool {
	a := squash(answer)
	return a != "" && strings.Contains(squash(utterance), a)
}

// after returns the text following the first mention of a in u. Spacing
// inside the answer is ignored ("북극 곰" mentions "북극곰").
func after(u, a string) (string, bool) {
	if i := strings.Index(u, a); i >= 0 {
		return u[i+len(a):], true
	}
	target := squash(a)
	if target == "" {
		return "", false
	}
	// Walk u rune by rune collecting non-space runes until target matches.
	for start := 0; start < len(u); {
		r, size := utf8.DecodeRuneInString(u[start:])
		if r == ' ' {
			start += size
			continue
		}
		if end, ok := matchSquashed(u, start, target); ok {
			return u[end:], true
		}
		start += size
	}
	return "", false
}

func matchSquashed(u string, start int, target string) (int, bool) {
	i, t := start, 0
	for t < len(target) && i < len(u) {
		if u[i] == ' ' {
			i++
			continue
		}
		if u[i] != target[t] {
			return 0, false
		}
		i++
		t++
	}
	return i, t == len(target)
}

// fuzzyAfter finds the utterance token closest to a and returns the text
// after it. Each token is also compared with its leading syllables trimmed to
// the answer's length so trailing particles do not drag the score down.
func (c *Checker) fuzzyAfter(u, a string) (string, bool) {
	target := decompose(squash(a))
	targetLen := utf8.RuneCountInString(squash(a))

	best, bestEnd := 0.0, -1
	offset := 0
	for _, tok := range strings.Fields(u) {
		idx := strings.Index(u[offset:], tok) + offset
		end := idx + len(tok)
		offset = end

		candidates := []string{tok}
		if runes := []rune(tok); len(runes) > targetLen {
			candidates = append(candidates, string(runes[:targetLen]))
		}
		for _, cand := range candidates {
			if s := matchr.JaroWinkler(target, decompose(cand), false); s > best {
				best, bestEnd = s, end
			}
		}
	}
	if bestEnd < 0 || best < c.threshold {
		return "", false
	}
	return u[bestEnd:], true
}

// negatedAfter reports whether rest opens with a negation. A particle glued
// to the answer may sit in between, alone or attached ("사자는 아닌", "사자가아니야").
func negatedAfter(rest string) bool {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return false
	}
	first := fields[0]
	if hasNegation(first) {
		return true
	}
	if strings.TrimLeft(rest, " \t\n") != rest {
		return false
	}
	for _, p := range particles {
		g, ok := strings.CutPrefix(first, p)
		if !ok {
			continue
		}
		if hasNegation(g) || (g == "" && len(fields) > 1 && hasNegation(fields[1])) {
			return true
		}
	}
	return false
}

func hasNegation(s string) bool {
	for _, n := range negations {
		if strings.HasPrefix(s, n) {
			return true
		}
	}
	return false
}

func squash(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}
