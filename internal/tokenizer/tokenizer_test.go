package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hi, my name is Mike", "hi my name is mike"},
		{"  Hello   WORLD  ", "hello world"},
		{"abc123def", "abc 123 def"},
		{"a1b2", "a 1 b 2"},
		{"route66, NOW!", "route 66 now"},
		{"tab\tand\nnewline", "tab and newline"},
		{"!!!", ""},
		{"", ""},
		{"Ünïcode Straße", "ünïcode straße"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"hi", "my", "name", "is", "mike"}, Words("hi, my name is Mike"))
	assert.Empty(t, Words(""))
	assert.Empty(t, Words(" .,; "))
}

func TestPhrases(t *testing.T) {
	text := "hi, my name is Mike"
	assert.Equal(t, []string{"hi", "my", "name", "is", "mike"}, Phrases(text, 1))
	assert.Equal(t, []string{"hi my", "my name", "name is", "is mike"}, Phrases(text, 2))
	assert.Equal(t, []string{"hi my name is mike"}, Phrases(text, 5))
	assert.Empty(t, Phrases(text, 6))
	assert.Empty(t, Phrases(text, 0))
	assert.Empty(t, Phrases("", 1))
}

func TestPhraseRange(t *testing.T) {
	got := PhraseRange("a b c", 1, 3)
	assert.Equal(t, []string{"a", "b", "c", "a b", "b c", "a b c"}, got)

	assert.Equal(t, []string{"a b", "b c"}, PhraseRange("a b c", 2, 2))
	assert.Empty(t, PhraseRange("a b c", 4, 6))
	assert.Empty(t, PhraseRange("", 1, 3))
}

func TestNGrams_DoesNotAliasInput(t *testing.T) {
	words := []string{"x", "y"}
	grams := NGrams(words, 1)
	grams[0] = "changed"
	assert.Equal(t, "x", words[0])
}
