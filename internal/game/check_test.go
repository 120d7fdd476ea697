package game

import (
	"testing"
	"unicode/utf8"
)

func TestCheckAnimal(t *testing.T) {
	t.Parallel()
	c := NewChecker()

	tests := []struct {
		name      string
		utterance string
		answer    string
		want      AnimalResult
	}{
		{"exact", "사자야!", "사자", AnimalResult{Correct: true, Matched: "사자"}},
		{"exact with spacing", "북극 곰 이에요", "북극곰", AnimalResult{Correct: true, Matched: "북극곰"}},
		{"case folding", "It is a LION", "lion", AnimalResult{Correct: true, Matched: "lion"}},
		{"miss", "강아지", "고양이", AnimalResult{}},
		{"negation spaced", "사자 아니야", "사자", AnimalResult{Note: NoteNegation}},
		{"negation after particle", "사자는 아닌 것 같아", "사자", AnimalResult{Note: NoteNegation}},
		{"negation glued", "사자가아니야", "사자", AnimalResult{Note: NoteNegation}},
		{"negation before answer", "아니 사자야", "사자", AnimalResult{Correct: true, Matched: "사자"}},
		{"negation later", "사자 맞아 아니 정말", "사자", AnimalResult{Correct: true, Matched: "사자"}},
		{"other animal denied", "사자가 아니라 호랑이", "호랑이", AnimalResult{Correct: true, Matched: "호랑이"}},
		{"fuzzy vowel slip", "호랭이", "호랑이", AnimalResult{Correct: true, Matched: "호랑이", Note: NoteFuzzy}},
		{"fuzzy with particle", "음 호랭이야", "호랑이", AnimalResult{Correct: true, Matched: "호랑이", Note: NoteFuzzy}},
		{"fuzzy latin", "it is an elefant", "elephant", AnimalResult{Correct: true, Matched: "elephant", Note: NoteFuzzy}},
		{"fuzzy then negation", "호랭이 아니야", "호랑이", AnimalResult{Note: NoteNegation}},
		{"empty answer", "사자", "  ", AnimalResult{}},
		{"empty utterance", "", "사자", AnimalResult{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := c.CheckAnimal(tt.utterance, tt.answer); got != tt.want {
				t.Errorf("CheckAnimal(%q, %q) = %+v, want %+v", tt.utterance, tt.answer, got, tt.want)
			}
		})
	}
}

func TestCheckAnimal_ThresholdOption(t *testing.T) {
	t.Parallel()
	strict := NewChecker(WithFuzzyThreshold(0.99))
	if got := strict.CheckAnimal("호랭이", "호랑이"); got.Correct {
		t.Errorf("strict checker accepted fuzzy match: %+v", got)
	}
	if NewChecker(WithFuzzyThreshold(5)).threshold != DefaultFuzzyThreshold {
		t.Error("out-of-range threshold should be ignored")
	}
}

func TestCheckTwentyQ(t *testing.T) {
	t.Parallel()
	c := NewChecker()
	tests := []struct {
		utterance, answer string
		want              bool
	}{
		{"정답은 기린!", "기린", true},
		{"냉 장 고", "냉장고", true},
		{"Giraffe", "giraffe", true},
		{"코끼리", "기린", false},
		{"기린", "", false},
	}
	for _, tt := range tests {
		if got := c.CheckTwentyQ(tt.utterance, tt.answer); got != tt.want {
			t.Errorf("CheckTwentyQ(%q, %q) = %v, want %v", tt.utterance, tt.answer, got, tt.want)
		}
	}
}

func TestDecompose(t *testing.T) {
	t.Parallel()
	got := decompose("랑A")
	want := "\u1105\u1161\u11bca"
	if got != want {
		t.Errorf("decompose = %+q, want %+q", got, want)
	}
	if n := utf8.RuneCountInString(decompose("호랑이")); n != 7 {
		t.Errorf("호랑이 decomposes to %d jamo, want 7", n)
	}
}
