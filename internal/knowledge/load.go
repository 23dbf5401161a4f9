package knowledge

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"symptom-triage/internal/nlp"
)

// ErrInvalidCatalog is returned by Load for definitions that break a
// catalog invariant.
var ErrInvalidCatalog = errors.New("invalid catalog")

type definition struct {
	Symptoms        yaml.Node         `yaml:"symptoms"`
	Recommendations map[string]string `yaml:"recommendations"`
	Emergency       []string          `yaml:"emergency"`
}

type weightedEntry struct {
	Weight     *int     `yaml:"weight"`
	Conditions []string `yaml:"conditions"`
}

// Load parses a YAML catalog definition. Symptom entries keep their
// document order. An entry given as a bare condition list gets weight 1.
func Load(data []byte) (*Base, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if def.Symptoms.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: symptoms must be a mapping", ErrInvalidCatalog)
	}

	b := &Base{
		symptoms:        make(map[string]Symptom),
		recommendations: make(map[string]string),
		emergency:       make(map[string]struct{}),
	}
	known := make(map[string]struct{})

	content := def.Symptoms.Content
	for i := 0; i+1 < len(content); i += 2 {
		key := strings.TrimSpace(content[i].Value)
		s, err := decodeSymptom(key, content[i+1])
		if err != nil {
			return nil, err
		}
		if _, dup := b.symptoms[key]; dup {
			return nil, fmt.Errorf("%w: duplicate symptom %q", ErrInvalidCatalog, key)
		}
		b.symptoms[key] = s
		b.order = append(b.order, key)
		if isMultiWord(key) {
			b.multiWord = append(b.multiWord, key)
		}
		for _, c := range s.Conditions {
			if _, ok := known[c]; !ok {
				known[c] = struct{}{}
				b.conditions = append(b.conditions, c)
			}
		}
	}
	if len(b.order) == 0 {
		return nil, fmt.Errorf("%w: no symptoms", ErrInvalidCatalog)
	}

	for condition, text := range def.Recommendations {
		if _, ok := known[condition]; !ok {
			return nil, fmt.Errorf("%w: recommendation for unknown condition %q", ErrInvalidCatalog, condition)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, fmt.Errorf("%w: empty recommendation for %q", ErrInvalidCatalog, condition)
		}
		b.recommendations[condition] = text
	}

	for _, condition := range def.Emergency {
		if _, ok := known[condition]; !ok {
			return nil, fmt.Errorf("%w: emergency condition %q is not listed under any symptom", ErrInvalidCatalog, condition)
		}
		b.emergency[condition] = struct{}{}
	}

	return b, nil
}

func decodeSymptom(key string, node *yaml.Node) (Symptom, error) {
	if err := checkKey(key); err != nil {
		return Symptom{}, fmt.Errorf("%w: symptom %q: %v", ErrInvalidCatalog, key, err)
	}

	s := Symptom{Key: key, Weight: 1}
	switch node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&s.Conditions); err != nil {
			return Symptom{}, fmt.Errorf("symptom %q: %w", key, err)
		}
	case yaml.MappingNode:
		var entry weightedEntry
		if err := node.Decode(&entry); err != nil {
			return Symptom{}, fmt.Errorf("symptom %q: %w", key, err)
		}
		if entry.Weight != nil {
			s.Weight = *entry.Weight
		}
		s.Conditions = entry.Conditions
	default:
		return Symptom{}, fmt.Errorf("%w: symptom %q must be a list or a mapping", ErrInvalidCatalog, key)
	}

	if s.Weight < 1 {
		return Symptom{}, fmt.Errorf("%w: symptom %q has weight %d", ErrInvalidCatalog, key, s.Weight)
	}
	if len(s.Conditions) == 0 {
		return Symptom{}, fmt.Errorf("%w: symptom %q has no conditions", ErrInvalidCatalog, key)
	}
	seen := make(map[string]struct{}, len(s.Conditions))
	for i, c := range s.Conditions {
		c = strings.TrimSpace(c)
		if err := checkKey(c); err != nil {
			return Symptom{}, fmt.Errorf("%w: symptom %q condition %q: %v", ErrInvalidCatalog, key, c, err)
		}
		if _, dup := seen[c]; dup {
			return Symptom{}, fmt.Errorf("%w: symptom %q lists %q twice", ErrInvalidCatalog, key, c)
		}
		seen[c] = struct{}{}
		s.Conditions[i] = c
	}
	return s, nil
}

func checkKey(key string) error {
	if key == "" {
		return errors.New("empty key")
	}
	if nlp.Fold(key) != key {
		return errors.New("key must be lowercase")
	}
	// The interaction log stores key lists comma-joined.
	if strings.Contains(key, ",") {
		return errors.New("key must not contain a comma")
	}
	return nil
}
