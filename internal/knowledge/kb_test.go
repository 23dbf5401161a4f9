package knowledge

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	kb := Default()
	require.NotNil(t, kb)
	assert.Same(t, kb, Default())

	want := []string{
		"headache", "fever", "cough", "sneezing", "fatigue", "nausea", "vomiting",
		"diarrhea", "rash", "dizziness", "shortness of breath", "chest pain",
		"sore throat", "runny nose", "abdominal pain",
	}
	if diff := cmp.Diff(want, kb.Symptoms()); diff != "" {
		t.Errorf("Symptoms() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"shortness of breath", "chest pain", "sore throat", "runny nose", "abdominal pain"}, kb.MultiWordSymptoms())

	fever, ok := kb.Symptom("fever")
	require.True(t, ok)
	assert.Equal(t, 2, fever.Weight)
	assert.Equal(t, []string{"common cold", "flu", "infection", "strep throat", "pneumonia"}, fever.Conditions)

	// Legacy list entries default to weight 1.
	cough, ok := kb.Symptom("cough")
	require.True(t, ok)
	assert.Equal(t, 1, cough.Weight)

	_, ok = kb.Symptom("tired")
	assert.False(t, ok)
	assert.Equal(t, 0, kb.Weight("tired"))
}

func TestDefaultCatalogInvariants(t *testing.T) {
	kb := Default()
	conditions := make(map[string]bool)
	for _, c := range kb.Conditions() {
		conditions[c] = true
	}
	for _, key := range kb.Symptoms() {
		s, ok := kb.Symptom(key)
		require.True(t, ok, key)
		assert.GreaterOrEqual(t, s.Weight, 1, key)
		assert.LessOrEqual(t, s.Weight, 3, key)
		assert.NotEmpty(t, s.Conditions, key)
		for _, c := range s.Conditions {
			assert.True(t, conditions[c], c)
		}
	}
	for _, c := range kb.EmergencyConditions() {
		assert.True(t, conditions[c], c)
	}
}

func TestSymptomReturnsCopy(t *testing.T) {
	kb := Default()
	s, _ := kb.Symptom("headache")
	s.Conditions[0] = "mutated"
	again, _ := kb.Symptom("headache")
	assert.Equal(t, "common cold", again.Conditions[0])
}

func TestRecommendationsAndEmergency(t *testing.T) {
	kb := Default()

	rec, ok := kb.Recommendation("migraine")
	require.True(t, ok)
	assert.Contains(t, rec, "dark room")

	_, ok = kb.Recommendation("vertigo")
	assert.False(t, ok)

	assert.True(t, kb.IsEmergency("pneumonia"))
	assert.True(t, kb.IsEmergency("heart attack"))
	assert.False(t, kb.IsEmergency("flu"))
	assert.True(t, kb.AnyEmergency([]string{"flu", "pneumonia"}))
	assert.False(t, kb.AnyEmergency([]string{"flu", "migraine"}))
	assert.False(t, kb.AnyEmergency(nil))
	assert.ElementsMatch(t, []string{"pneumonia", "heart attack", "heart problems", "angina", "appendicitis"}, kb.EmergencyConditions())
}

func TestEachCondition(t *testing.T) {
	var got []string
	Default().EachCondition("dizziness", func(c string) { got = append(got, c) })
	assert.Equal(t, []string{"dehydration", "inner ear infection", "low blood sugar", "vertigo"}, got)

	got = nil
	Default().EachCondition("tired", func(c string) { got = append(got, c) })
	assert.Empty(t, got)
}

func TestLoadShapes(t *testing.T) {
	kb, err := Load([]byte(`
symptoms:
  itch: [eczema]
  swollen ankle:
    conditions: [sprain, edema]
  wheeze:
    weight: 3
    conditions: [asthma]
recommendations:
  asthma: Use your inhaler.
emergency: [edema]
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"itch", "swollen ankle", "wheeze"}, kb.Symptoms())
	assert.Equal(t, []string{"swollen ankle"}, kb.MultiWordSymptoms())
	assert.Equal(t, 1, kb.Weight("itch"))
	assert.Equal(t, 1, kb.Weight("swollen ankle"))
	assert.Equal(t, 3, kb.Weight("wheeze"))
	assert.Equal(t, []string{"eczema", "sprain", "edema", "asthma"}, kb.Conditions())
	assert.True(t, kb.IsEmergency("edema"))
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	tests := map[string]string{
		"no symptoms":            `recommendations: {}`,
		"empty mapping":          `symptoms: {}`,
		"uppercase key":          "symptoms:\n  Headache: [flu]\n",
		"uppercase condition":    "symptoms:\n  headache: [Flu]\n",
		"zero weight":            "symptoms:\n  headache: {weight: 0, conditions: [flu]}\n",
		"negative weight":        "symptoms:\n  headache: {weight: -2, conditions: [flu]}\n",
		"no conditions":          "symptoms:\n  headache: []\n",
		"duplicate condition":    "symptoms:\n  headache: [flu, flu]\n",
		"comma in condition":     "symptoms:\n  headache: [\"cold, flu\"]\n",
		"scalar entry":           "symptoms:\n  headache: flu\n",
		"unknown recommendation": "symptoms:\n  headache: [flu]\nrecommendations:\n  cold: Rest.\n",
		"empty recommendation":   "symptoms:\n  headache: [flu]\nrecommendations:\n  flu: \"  \"\n",
		"unknown emergency":      "symptoms:\n  headache: [flu]\nemergency: [stroke]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog), err.Error())
		})
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load([]byte("symptoms: [unterminated"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCatalog))
}
