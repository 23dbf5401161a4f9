package triage

import "sort"

// ConditionScore is one condition with its accumulated evidence.
type ConditionScore struct {
	Condition string `json:"condition"`
	Score     int    `json:"score"`
}

// Ranking holds condition scores in order of first appearance. The zero
// value is an empty ranking.
type Ranking struct {
	scores []ConditionScore
	index  map[string]int
}

func (r *Ranking) add(condition string, weight int) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[condition]; ok {
		r.scores[i].Score += weight
		return
	}
	r.index[condition] = len(r.scores)
	r.scores = append(r.scores, ConditionScore{Condition: condition, Score: weight})
}

func (r Ranking) Len() int { return len(r.scores) }

func (r Ranking) Score(condition string) (int, bool) {
	i, ok := r.index[condition]
	if !ok {
		return 0, false
	}
	return r.scores[i].Score, true
}

// Scores returns the ranking as a plain map.
func (r Ranking) Scores() map[string]int {
	out := make(map[string]int, len(r.scores))
	for _, cs := range r.scores {
		out[cs.Condition] = cs.Score
	}
	return out
}

// Conditions returns the condition keys in order of first appearance.
func (r Ranking) Conditions() []string {
	out := make([]string, len(r.scores))
	for i, cs := range r.scores {
		out[i] = cs.Condition
	}
	return out
}

// Ordered returns every condition by descending score. Equal scores keep
// the order in which the conditions first appeared.
func (r Ranking) Ordered() []ConditionScore {
	out := append([]ConditionScore(nil), r.scores...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Top returns the first k entries of Ordered. k <= 0 means all.
func (r Ranking) Top(k int) []ConditionScore {
	out := r.Ordered()
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Total is the sum of all scores.
func (r Ranking) Total() int {
	total := 0
	for _, cs := range r.scores {
		total += cs.Score
	}
	return total
}

// Rank adds each symptom's weight to every condition it lists. Unknown
// symptoms contribute nothing.
func (a *Analyzer) Rank(symptoms []string) Ranking {
	var r Ranking
	for _, s := range symptoms {
		weight := a.kb.Weight(s)
		if weight == 0 {
			continue
		}
		a.kb.EachCondition(s, func(condition string) {
			r.add(condition, weight)
		})
	}
	return r
}
