// Package tokenizer turns raw text into the normalised words and word
// n-grams ("phrases") the vectorizer counts. Normalisation keeps letters and
// digits only, lower-cases, and splits letter runs from digit runs, so
// "Route66, NOW!" becomes "route 66 now".
package tokenizer

import (
	"strings"
	"unicode"
)

type runeClass uint8

const (
	classOther runeClass = iota
	classLetter
	classDigit
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsLetter(r):
		return classLetter
	case unicode.IsDigit(r):
		return classDigit
	default:
		return classOther
	}
}

// Normalize applies the standard formatting: non-alphanumerics become
// spaces, whitespace runs collapse, text is lower-cased, adjacent letter and
// digit runs are separated by a space, and surrounding whitespace is trimmed.
func Normalize(text string) string {
	return strings.Join(Words(text), " ")
}

// Words returns the normalised words of text in order.
func Words(text string) []string {
	var (
		words []string
		b     strings.Builder
		prev  = classOther
	)
	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		cls := classify(r)
		if cls == classOther {
			flush()
			prev = cls
			continue
		}
		if prev != classOther && cls != prev {
			flush()
		}
		b.WriteRune(unicode.ToLower(r))
		prev = cls
	}
	flush()
	return words
}

// Phrases returns every run of n consecutive words of text joined by single
// spaces. It returns nil when text has fewer than n words.
func Phrases(text string, n int) []string {
	return NGrams(Words(text), n)
}

// PhraseRange returns the phrases of every length in [smallest, largest],
// shortest first. The text is tokenised once.
func PhraseRange(text string, smallest, largest int) []string {
	words := Words(text)
	var out []string
	for n := smallest; n <= largest; n++ {
		out = append(out, NGrams(words, n)...)
	}
	return out
}

// NGrams joins each window of n consecutive words.
func NGrams(words []string, n int) []string {
	if n < 1 || len(words) < n {
		return nil
	}
	if n == 1 {
		out := make([]string, len(words))
		copy(out, words)
		return out
	}
	out := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+n], " "))
	}
	return out
}
