package rules

import "strings"

// Rule pairs a trigger keyword with the response it produces. Rules are
// evaluated in order and the first match wins, so the position of a rule in
// its table is observable behaviour, not an implementation detail.
type Rule struct {
	Keyword  string
	Response string
}

// Table is an ordered decision list plus a distinguished default response
// returned when no keyword matches.
type Table struct {
	Rules   []Rule
	Default string
}

// Resolve maps free-text input to a response. Both the input and the
// keywords are lower-cased before a substring containment check; the first
// rule (in table order) whose keyword is contained in the input wins. It
// never fails: when nothing matches, the table default is returned.
func (t Table) Resolve(input string) string {
	lower := strings.ToLower(input)
	for _, r := range t.Rules {
		if strings.Contains(lower, strings.ToLower(r.Keyword)) {
			return r.Response
		}
	}
	return t.Default
}

// CardiacTable returns the stock French rule table for the cardiac
// assistant. Callers get a fresh copy; the shared literal is never exposed
// for mutation.
func CardiacTable() Table {
	return Table{
		Rules: []Rule{
			{
				Keyword:  "Rappel médicament",
				Response: "Vous devez prendre votre Atorvastatine 40mg ce matin avec un verre d'eau. Voulez-vous que je vous rappelle dans 1 heure ?",
			},
			{
				Keyword:  "Symptômes",
				Response: "Pour évaluer vos symptômes, pourriez-vous préciser :\n1. Ressentez-vous des douleurs thoraciques ?\n2. Avez-vous des essoufflements anormaux ?\n3. Remarquez-vous des palpitations ?",
			},
			{
				Keyword:  "Rendez-vous",
				Response: "Votre prochain rendez-vous avec le Dr. Martin est prévu le 15/06/2023 à 14h30. Souhaitez-vous le modifier ?",
			},
		},
		Default: "Je suis votre assistant cardiaque. Posez-moi vos questions sur vos médicaments, symptômes ou rendez-vous.",
	}
}
