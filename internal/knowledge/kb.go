package knowledge

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed kb.yaml
var defaultDefinition []byte

// Symptom is a recognized complaint and the conditions it lends evidence to.
type Symptom struct {
	Key        string   `json:"key" yaml:"key"`
	Weight     int      `json:"weight" yaml:"weight"`
	Conditions []string `json:"conditions" yaml:"conditions"`
}

// Base is the read-only symptom catalog. A Base is never mutated after
// Load returns, so it can be shared between goroutines without locking.
type Base struct {
	order           []string
	symptoms        map[string]Symptom
	multiWord       []string
	conditions      []string
	recommendations map[string]string
	emergency       map[string]struct{}
}

var (
	defaultOnce sync.Once
	defaultBase *Base
)

// Default returns the catalog embedded in the binary.
func Default() *Base {
	defaultOnce.Do(func() {
		kb, err := Load(defaultDefinition)
		if err != nil {
			panic("knowledge: embedded catalog is invalid: " + err.Error())
		}
		defaultBase = kb
	})
	return defaultBase
}

// Has reports whether key is a symptom in the catalog.
func (b *Base) Has(key string) bool {
	_, ok := b.symptoms[key]
	return ok
}

func (b *Base) Symptom(key string) (Symptom, bool) {
	s, ok := b.symptoms[key]
	if !ok {
		return Symptom{}, false
	}
	s.Conditions = append([]string(nil), s.Conditions...)
	return s, true
}

// Weight returns 0 for unknown symptoms.
func (b *Base) Weight(key string) int {
	return b.symptoms[key].Weight
}

// conditionsOf returns the shared slice; callers must not modify it.
func (b *Base) conditionsOf(key string) []string {
	return b.symptoms[key].Conditions
}

// EachCondition calls fn for every condition listed under the symptom, in
// declared order.
func (b *Base) EachCondition(key string, fn func(condition string)) {
	for _, c := range b.conditionsOf(key) {
		fn(c)
	}
}

// Symptoms returns every symptom key in declared order.
func (b *Base) Symptoms() []string {
	return append([]string(nil), b.order...)
}

// MultiWordSymptoms returns the keys containing a space, in declared order.
func (b *Base) MultiWordSymptoms() []string {
	return append([]string(nil), b.multiWord...)
}

// Conditions returns every condition key in order of first declaration.
func (b *Base) Conditions() []string {
	return append([]string(nil), b.conditions...)
}

func (b *Base) Recommendation(condition string) (string, bool) {
	r, ok := b.recommendations[condition]
	return r, ok
}

func (b *Base) IsEmergency(condition string) bool {
	_, ok := b.emergency[condition]
	return ok
}

// AnyEmergency reports whether at least one of the conditions is in the
// emergency set.
func (b *Base) AnyEmergency(conditions []string) bool {
	for _, c := range conditions {
		if b.IsEmergency(c) {
			return true
		}
	}
	return false
}

// EmergencyConditions returns the emergency set in catalog order.
func (b *Base) EmergencyConditions() []string {
	var out []string
	for _, c := range b.conditions {
		if b.IsEmergency(c) {
			out = append(out, c)
		}
	}
	return out
}

func isMultiWord(key string) bool {
	return strings.Contains(key, " ")
}
