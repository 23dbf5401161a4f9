package triage

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"symptom-triage/internal/knowledge"
	"symptom-triage/internal/nlp"
)

var tokenizers = map[string]nlp.Tokenizer{
	"words":  nlp.Words{},
	"fields": nlp.Fields{},
}

func newAnalyzer() *Analyzer {
	return NewAnalyzer(knowledge.Default())
}

func scores(pairs ...any) map[string]int {
	out := make(map[string]int)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i].(string)] = pairs[i+1].(int)
	}
	return out
}

func topConditions(r Ranking, k int) []string {
	var out []string
	for _, cs := range r.Top(k) {
		out = append(out, cs.Condition)
	}
	return out
}

// renderedOrder returns the conditions in the order their items appear in
// the markup.
func renderedOrder(t *testing.T, response string, conditions []string) []string {
	t.Helper()
	type pos struct {
		name string
		at   int
	}
	var found []pos
	for _, c := range conditions {
		if i := strings.Index(response, "<strong>"+c+"</strong>"); i >= 0 {
			found = append(found, pos{c, i})
		}
	}
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].at < found[j-1].at; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}
	var out []string
	for _, p := range found {
		out = append(out, p.name)
	}
	return out
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		lang      Language
		symptoms  []string
		scores    map[string]int
		emergency bool
		top       []string
	}{
		{
			name:     "headache and fever",
			input:    "I have a headache and a fever",
			lang:     English,
			symptoms: []string{"headache", "fever"},
			scores: scores("common cold", 3, "flu", 3, "migraine", 1, "tension headache", 1,
				"sinusitis", 1, "infection", 2, "strep throat", 2, "pneumonia", 2),
			emergency: true,
			top:       []string{"common cold", "flu", "infection", "strep throat", "pneumonia"},
		},
		{
			name:     "multi-word symptoms",
			input:    "shortness of breath and chest pain",
			lang:     English,
			symptoms: []string{"shortness of breath", "chest pain"},
			scores: scores("asthma", 3, "pneumonia", 3, "covid", 3, "heart problems", 3,
				"heart attack", 3, "angina", 3, "anxiety", 3),
			emergency: true,
			top:       []string{"asthma", "pneumonia", "covid", "heart problems", "heart attack"},
		},
		{
			name:     "no known token",
			input:    "just tired",
			lang:     English,
			symptoms: []string{},
			scores:   map[string]int{},
		},
		{
			name:     "duplicated and shouted",
			input:    "HEADACHE, HEADACHE!",
			lang:     Arabic,
			symptoms: []string{"headache"},
			scores: scores("common cold", 1, "flu", 1, "migraine", 1, "tension headache", 1,
				"sinusitis", 1),
			top: []string{"common cold", "flu", "migraine", "tension headache", "sinusitis"},
		},
		{
			name:     "equal scores keep first-seen order",
			input:    "rash and dizziness",
			lang:     English,
			symptoms: []string{"rash", "dizziness"},
			scores: scores("allergies", 2, "chickenpox", 2, "measles", 2, "eczema", 2,
				"poison ivy", 2, "dehydration", 2, "inner ear infection", 2,
				"low blood sugar", 2, "vertigo", 2),
			top: []string{"allergies", "chickenpox", "measles", "eczema", "poison ivy"},
		},
	}

	a := newAnalyzer()
	for tokName, tok := range tokenizers {
		for _, tt := range tests {
			t.Run(tokName+"/"+tt.name, func(t *testing.T) {
				res := a.Analyze(tok, tt.input, tt.lang)

				if diff := cmp.Diff(tt.symptoms, res.Symptoms); diff != "" {
					t.Errorf("symptoms mismatch (-want +got):\n%s", diff)
				}
				assert.Equal(t, tt.scores, res.Ranking.Scores())
				assert.Equal(t, tt.emergency, res.Emergency)
				assert.Equal(t, tt.emergency, strings.Contains(res.Response, `class="emergency-banner"`))
				assert.Equal(t, tt.top, topConditions(res.Ranking, TopK))
				assert.Equal(t, tt.top, renderedOrder(t, res.Response, res.Ranking.Conditions()))
				assert.Contains(t, res.Response, `class="disclaimer"`)
			})
		}
	}
}

func TestTiredRendersOnlyNoSymptomsAndDisclaimer(t *testing.T) {
	a := newAnalyzer()
	res := a.Analyze(nlp.Words{}, "just tired", English)

	assert.Contains(t, res.Response, html.EscapeString(catalog[English].noSymptoms))
	assert.Contains(t, res.Response, html.EscapeString(catalog[English].disclaimer))
	assert.NotContains(t, res.Response, "emergency-banner")
	assert.NotContains(t, res.Response, "detected-symptoms")
	assert.NotContains(t, res.Response, "conditions-header")
}

func TestArabicResponseUsesArabicFragments(t *testing.T) {
	a := newAnalyzer()
	res := a.Analyze(nlp.Words{}, "HEADACHE, HEADACHE!", Arabic)

	assert.Contains(t, res.Response, `dir="rtl"`)
	assert.Contains(t, res.Response, `lang="ar"`)
	assert.Contains(t, res.Response, catalog[Arabic].detected+"headache.")
	assert.Contains(t, res.Response, catalog[Arabic].conditions)
	assert.Contains(t, res.Response, catalog[Arabic].disclaimer)
	assert.Contains(t, res.Response, "(الدرجة 1)")
	assert.NotContains(t, res.Response, "Based on your symptoms")
	assert.False(t, res.Emergency)
}

func TestEmptyUtterance(t *testing.T) {
	a := newAnalyzer()
	for _, lang := range []Language{English, Arabic} {
		res := a.Analyze(nlp.Words{}, "", lang)
		assert.Empty(t, res.Symptoms)
		assert.Equal(t, 0, res.Ranking.Len())
		assert.False(t, res.Emergency)
		assert.Contains(t, res.Response, `class="no-symptoms"`)
		assert.Contains(t, res.Response, `class="disclaimer"`)
		assert.Equal(t, 3, strings.Count(res.Response, `<div class="`), "root plus two sections expected")
	}
}

func TestExtractBoundaries(t *testing.T) {
	a := newAnalyzer()
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plural does not match", "I get headaches", []string{}},
		{"split multi-word key", "my chest hurts and the pain is bad", []string{}},
		{"multi-word after single words", "Chest pain with FEVER", []string{"fever", "chest pain"}},
		{"multi-word catalog order", "chest pain and shortness of breath", []string{"shortness of breath", "chest pain"}},
		{"negation is not interpreted", "no fever", []string{"fever"}},
		{"repeated multi-word", "sore throat, sore throat", []string{"sore throat"}},
		{"punctuation around token", "(nausea)...vomiting?", []string{"nausea", "vomiting"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Extract(nlp.Words{}, tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

var propertyInputs = []string{
	"",
	"I have a headache and a fever",
	"shortness of breath and chest pain",
	"HEADACHE, HEADACHE!",
	"Rash and Dizziness after a Sore Throat",
	"cough cough sneezing; Runny Nose and fatigue",
	"abdominal pain, diarrhea and vomiting with nausea",
	"just tired",
}

func TestExtractIsIdempotent(t *testing.T) {
	a := newAnalyzer()
	for _, tok := range tokenizers {
		for _, in := range propertyInputs {
			first := a.Extract(tok, in)
			assert.Equal(t, first, a.Extract(tok, in), in)
			assert.Equal(t, first, a.Extract(tok, strings.ToLower(in)), in)
		}
	}
}

func TestRankingIsMonotonic(t *testing.T) {
	a := newAnalyzer()
	kb := a.Catalog()
	for _, in := range propertyInputs {
		before := a.Analyze(nlp.Words{}, in, English).Ranking
		for _, extra := range kb.Symptoms() {
			after := a.Analyze(nlp.Words{}, in+" and "+extra, English).Ranking
			for _, cs := range before.Ordered() {
				got, ok := after.Score(cs.Condition)
				require.True(t, ok, "%q + %q lost %q", in, extra, cs.Condition)
				assert.GreaterOrEqual(t, got, cs.Score, "%q + %q", in, extra)
			}
		}
	}
}

func TestRankingConservesWeight(t *testing.T) {
	a := newAnalyzer()
	kb := a.Catalog()
	for _, in := range propertyInputs {
		res := a.Analyze(nlp.Words{}, in, English)
		want := 0
		for _, s := range res.Symptoms {
			entry, ok := kb.Symptom(s)
			require.True(t, ok)
			want += entry.Weight * len(entry.Conditions)
		}
		assert.Equal(t, want, res.Ranking.Total(), in)

		sum := 0
		for _, v := range res.Ranking.Scores() {
			sum += v
		}
		assert.Equal(t, want, sum, in)
	}
}

func TestEmergencyFlagMatchesEmergencySet(t *testing.T) {
	a := newAnalyzer()
	kb := a.Catalog()
	for _, key := range kb.Symptoms() {
		res := a.Analyze(nlp.Words{}, key, English)
		want := false
		for _, c := range res.Ranking.Conditions() {
			if kb.IsEmergency(c) {
				want = true
			}
		}
		assert.Equal(t, want, res.Emergency, key)
		assert.Equal(t, want, strings.Contains(res.Response, "emergency-banner"), key)
	}
}

func TestRankIgnoresUnknownSymptoms(t *testing.T) {
	r := newAnalyzer().Rank([]string{"tired", "cough"})
	assert.Equal(t, []string{"common cold", "flu", "bronchitis", "pneumonia", "allergies"}, r.Conditions())
	assert.Equal(t, 5, r.Total())
}

func TestRankingZeroValue(t *testing.T) {
	var r Ranking
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Scores())
	assert.Empty(t, r.Top(TopK))
	_, ok := r.Score("flu")
	assert.False(t, ok)
}

func TestComposeToleratesEmptyRanking(t *testing.T) {
	out := newAnalyzer().Compose([]string{"mystery"}, Ranking{}, English)
	assert.Contains(t, out, `class="detected-symptoms"`)
	assert.Contains(t, out, `class="unknown-symptoms"`)
	assert.NotContains(t, out, "conditions-header")
	assert.NotContains(t, out, "no-symptoms")
}

func TestComposeIncludesRecommendationsOnlyWhenKnown(t *testing.T) {
	a := newAnalyzer()
	res := a.Analyze(nlp.Words{}, "dizziness", English)
	// dehydration has advice, vertigo does not.
	assert.Contains(t, res.Response, "oral rehydration solution")
	assert.Equal(t, 1, strings.Count(res.Response, "<em>"))
	assert.Equal(t, 4, strings.Count(res.Response, `class="condition-item"`))
}

func TestComposeEscapesMarkup(t *testing.T) {
	out := newAnalyzer().Compose([]string{"<script>"}, Ranking{}, English)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"", English, true},
		{"en", English, true},
		{"EN", English, true},
		{"en-GB", English, true},
		{"ar", Arabic, true},
		{" ar-EG ", Arabic, true},
		{"fr", English, false},
		{"not a tag!", English, false},
		// Related languages the matcher would call close enough.
		{"ckb", English, false},
		{"ur", English, false},
	}
	for _, code := range []string{"mt", "cy", "sw", "so", "ha", "ps", "sd", "ti", "zu", "i-klingon"} {
		tests = append(tests, struct {
			in   string
			want Language
			ok   bool
		}{code, English, false})
	}
	for _, tt := range tests {
		got, ok := ParseLanguage(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
