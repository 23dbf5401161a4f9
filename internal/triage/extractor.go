package triage

import (
	"strings"

	"symptom-triage/internal/nlp"
)

// Extract returns the catalog symptoms mentioned in utterance, without
// duplicates. Single-word symptoms come first, in token order; multi-word
// symptoms follow, in catalog order, matched as substrings of the folded
// utterance. Tokens must equal a key exactly: "headaches" does not match
// "headache".
func (a *Analyzer) Extract(tok nlp.Tokenizer, utterance string) []string {
	found := make([]string, 0, 4)
	seen := make(map[string]struct{})
	add := func(key string) {
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		found = append(found, key)
	}

	for _, token := range tok.Tokenize(utterance) {
		key := nlp.Fold(token)
		if a.kb.Has(key) {
			add(key)
		}
	}

	folded := nlp.Fold(utterance)
	for _, key := range a.multiWord {
		if strings.Contains(folded, key) {
			add(key)
		}
	}
	return found
}
