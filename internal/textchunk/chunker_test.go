package textchunk

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSentences(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{"single", "Hello.", []string{"Hello."}},
		{"mixed terminators", "Hi! How are you? Fine.", []string{"Hi!", " How are you?", " Fine."}},
		{"terminator runs", "Wait... What?! Ok", []string{"Wait...", " What?!", " Ok"}},
		{"unterminated", "no punctuation here", []string{"no punctuation here"}},
		{"leading terminators", "...and then. End", []string{"...and then.", " End"}},
		{"only terminators", "?!.", []string{"?!."}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sentences(tt.text)
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d units %q, got %d %q", len(tt.expected), tt.expected, len(got), got)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Unit %d: expected %q, got %q", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	texts := []string{
		"Hello.",
		"One. Two! Three?",
		"trailing words without a stop",
		"Ünïcödé sentence. ✓ Done.",
	}
	for _, text := range texts {
		chunks := Split(text, 100)
		if len(chunks) != 1 || chunks[0] != text {
			t.Errorf("Expected single chunk %q, got %q", text, chunks)
		}
	}
}

func TestSplit_Reconstructs(t *testing.T) {
	texts := []string{
		"",
		"A. B. C. D. E. F.",
		"...leading dots. Then text! And? trailing",
		strings.Repeat("Sentence number one is here. ", 50),
		"Line one.\nLine two!\n\nLine three? tail",
		strings.Repeat("x", 30) + ". " + strings.Repeat("y", 5) + ".",
	}
	for _, size := range []int{1, 5, 10, 40, 4000} {
		for _, text := range texts {
			chunks := Split(text, size)
			if got := strings.Join(chunks, ""); got != text {
				t.Errorf("size %d: join mismatch\nwant %q\ngot  %q", size, text, got)
			}
		}
	}
}

func TestSplit_EmptyText(t *testing.T) {
	chunks := Split("", 4000)
	if len(chunks) != 1 || chunks[0] != "" {
		t.Errorf("Expected one empty chunk, got %q", chunks)
	}
}

func TestSplit_JustUnderBudgetNoPunctuation(t *testing.T) {
	const max = 50
	text := strings.Repeat("a", max-1)
	chunks := Split(text, max)
	if len(chunks) != 1 || chunks[0] != text {
		t.Errorf("Expected the whole text as one chunk, got %d chunks", len(chunks))
	}
}

func TestSplit_ReachingBudgetFlushes(t *testing.T) {
	// "aaaa." + "bbbb." is exactly 10 characters, which reaches the budget.
	chunks := Split("aaaa.bbbb.", 10)
	if len(chunks) != 2 || chunks[0] != "aaaa." || chunks[1] != "bbbb." {
		t.Errorf("Expected two chunks, got %q", chunks)
	}

	chunks = Split("aaaa.bbbb.", 11)
	if len(chunks) != 1 {
		t.Errorf("Expected one chunk under budget, got %q", chunks)
	}
}

func TestSplit_OversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("z", 25) + "."
	text := "Short. " + long + " End."
	chunks := Split(text, 10)

	expected := []string{"Short.", " " + long, " End."}
	if len(chunks) != len(expected) {
		t.Fatalf("Expected %d chunks, got %q", len(expected), chunks)
	}
	for i := range expected {
		if chunks[i] != expected[i] {
			t.Errorf("Chunk %d: expected %q, got %q", i, expected[i], chunks[i])
		}
	}
}

func TestSplit_CountsCharactersNotBytes(t *testing.T) {
	// Each sentence is 3 runes but 7 bytes.
	text := "éé.éé."
	chunks := Split(text, 7)
	if len(chunks) != 1 {
		t.Errorf("Expected one chunk for 6 characters under a budget of 7, got %q", chunks)
	}
}

func TestSplit_ChunksRespectBudget(t *testing.T) {
	text := strings.Repeat("Short sentence here. ", 200)
	const max = 100
	for i, c := range Split(text, max) {
		if n := utf8.RuneCountInString(c); n >= max {
			t.Errorf("Chunk %d has %d characters, budget %d", i, n, max)
		}
		if c == "" {
			t.Errorf("Chunk %d is empty", i)
		}
	}
}

func TestSplit_NonPositiveBudget(t *testing.T) {
	text := "One. Two."
	chunks := Split(text, 0)
	if len(chunks) != 1 || chunks[0] != text {
		t.Errorf("Expected whole text for zero budget, got %q", chunks)
	}
}
