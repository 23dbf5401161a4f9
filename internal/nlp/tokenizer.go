// Package nlp holds the tokenizers the symptom extractor runs on.
package nlp

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrUnknownTokenizer is returned by a factory built for a kind this
// package does not provide.
var ErrUnknownTokenizer = errors.New("unknown tokenizer")

const (
	KindWords  = "words"
	KindFields = "fields"
)

// Tokenizer splits an utterance into word tokens. Tokens keep their
// original case; callers fold them.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Factory builds a Tokenizer. It is called once per process.
type Factory func() (Tokenizer, error)

// NewFactory returns the factory for kind. An unknown kind still yields a
// factory, one that always fails, so the failure surfaces on first use.
func NewFactory(kind string) Factory {
	return func() (Tokenizer, error) {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case "", KindWords:
			return Words{}, nil
		case KindFields:
			return Fields{}, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownTokenizer, kind)
		}
	}
}

// Words emits maximal runs of letters, digits and combining marks.
type Words struct{}

func (Words) Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})
}

// Fields splits on whitespace and trims surrounding punctuation, so
// "headache," yields "headache" but "e-mail" stays whole.
type Fields struct{}

func (Fields) Tokenize(text string) []string {
	raw := strings.Fields(text)
	out := raw[:0]
	for _, f := range raw {
		f = strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Fold lower-cases s using Unicode rules that do not depend on a locale.
func Fold(s string) string {
	// A Caser keeps state between calls and must not be shared.
	return cases.Lower(language.Und).String(s)
}
