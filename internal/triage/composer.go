package triage

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// TopK is the number of conditions listed in a response.
const TopK = 5

// Compose renders the advisory markup for an extraction and its ranking.
// Sections appear in this order: emergency banner, detected symptoms,
// ranked conditions (or the no-symptoms note), disclaimer. Condition names
// and recommendations are catalog text and are not localized.
func (a *Analyzer) Compose(symptoms []string, ranking Ranking, lang Language) string {
	m := messagesFor(lang)

	root := element(atom.Div,
		html.Attribute{Key: "class", Val: "triage-response"},
		html.Attribute{Key: "lang", Val: lang.String()},
		html.Attribute{Key: "dir", Val: m.dir},
	)

	if a.kb.AnyEmergency(ranking.Conditions()) {
		root.AppendChild(section("emergency-banner", text(m.emergency)))
	}

	if len(symptoms) == 0 {
		root.AppendChild(section("no-symptoms", text(m.noSymptoms)))
	} else {
		root.AppendChild(section("detected-symptoms",
			text(m.detected+strings.Join(symptoms, m.listSeparator)+".")))

		if ranking.Len() == 0 {
			root.AppendChild(section("unknown-symptoms", text(m.unknown)))
		} else {
			root.AppendChild(section("conditions-header", wrap(atom.Strong, text(m.conditions))))
			for _, cs := range ranking.Top(a.topK) {
				root.AppendChild(a.conditionItem(cs, m))
			}
		}
	}

	root.AppendChild(section("disclaimer", text(m.disclaimer)))

	var b strings.Builder
	// Rendering into a strings.Builder cannot fail for a tree built here.
	_ = html.Render(&b, root)
	return b.String()
}

func (a *Analyzer) conditionItem(cs ConditionScore, m messages) *html.Node {
	item := section("condition-item",
		wrap(atom.Strong, text(cs.Condition)),
		text(" ("+m.scoreLabel+" "+strconv.Itoa(cs.Score)+")"),
	)
	if rec, ok := a.kb.Recommendation(cs.Condition); ok {
		item.AppendChild(element(atom.Br))
		item.AppendChild(wrap(atom.Em, text(m.recommendation+rec)))
	}
	return item
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func wrap(a atom.Atom, children ...*html.Node) *html.Node {
	n := element(a)
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func section(class string, children ...*html.Node) *html.Node {
	n := wrap(atom.Div, children...)
	n.Attr = []html.Attribute{{Key: "class", Val: class}}
	return n
}
