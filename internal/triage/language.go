package triage

import (
	"strings"

	"golang.org/x/text/language"
)

// Language selects the fixed message fragments a response is built from.
type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"
)

var (
	supportedTags = []language.Tag{language.English, language.Arabic}
	supported     = []Language{English, Arabic}
	matcher       = language.NewMatcher(supportedTags)
)

// ParseLanguage maps a language code onto a supported Language. Empty input
// means English. Regional variants such as "ar-EG" resolve to their base
// language. Anything else is coerced to English and reported with ok=false
// so the caller can log it; it is never rejected.
func ParseLanguage(code string) (lang Language, ok bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return English, true
	}
	tag, err := language.Parse(code)
	if err != nil {
		return English, false
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return English, false
	}
	// The matcher falls back to a "close enough" tag for languages it
	// considers related (ckb to ar, ur to en). Only the same base counts.
	base, _ := tag.Base()
	want, _ := supportedTags[idx].Base()
	if base != want {
		return English, false
	}
	return supported[idx], true
}

func (l Language) String() string { return string(l) }
