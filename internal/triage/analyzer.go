// Package triage turns a free-text complaint into recognized symptoms, a
// weighted condition ranking and a localized advisory response.
//
// Every function here is pure over its inputs and the read-only catalog,
// so an Analyzer may be shared by any number of goroutines.
package triage

import (
	"symptom-triage/internal/knowledge"
	"symptom-triage/internal/nlp"
)

// Result is everything derived from one utterance.
type Result struct {
	Symptoms  []string
	Ranking   Ranking
	Response  string
	Emergency bool
	Language  Language
}

type Analyzer struct {
	kb        *knowledge.Base
	multiWord []string
	topK      int
}

func NewAnalyzer(kb *knowledge.Base) *Analyzer {
	return &Analyzer{
		kb:        kb,
		multiWord: kb.MultiWordSymptoms(),
		topK:      TopK,
	}
}

// Catalog returns the catalog the analyzer reads from.
func (a *Analyzer) Catalog() *knowledge.Base { return a.kb }

// Analyze runs extraction, ranking and composition for one utterance.
func (a *Analyzer) Analyze(tok nlp.Tokenizer, utterance string, lang Language) Result {
	symptoms := a.Extract(tok, utterance)
	ranking := a.Rank(symptoms)
	return Result{
		Symptoms:  symptoms,
		Ranking:   ranking,
		Response:  a.Compose(symptoms, ranking, lang),
		Emergency: a.kb.AnyEmergency(ranking.Conditions()),
		Language:  lang,
	}
}
