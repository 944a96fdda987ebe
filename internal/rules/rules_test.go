package rules

import "testing"

func testTable() Table {
	return Table{
		Rules: []Rule{
			{Keyword: "Rappel médicament", Response: "Prenez votre médicament"},
			{Keyword: "médicament", Response: "Question sur un médicament"},
		},
		Default: "Assistant cardiaque",
	}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	tbl := testTable()
	// Both keywords are contained in the input; the earlier rule must win.
	got := tbl.Resolve("Je voudrais un Rappel médicament pour demain")
	if got != "Prenez votre médicament" {
		t.Fatalf("expected first rule to win, got %q", got)
	}
}

func TestResolve_LaterRuleMatches(t *testing.T) {
	tbl := testTable()
	got := tbl.Resolve("une question sur ce médicament")
	if got != "Question sur un médicament" {
		t.Fatalf("expected second rule, got %q", got)
	}
}

func TestResolve_DefaultWhenNoMatch(t *testing.T) {
	tbl := testTable()
	if got := tbl.Resolve("Bonjour"); got != "Assistant cardiaque" {
		t.Fatalf("expected default response, got %q", got)
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	tbl := testTable()
	if got := tbl.Resolve("RAPPEL MÉDICAMENT svp"); got != "Prenez votre médicament" {
		t.Fatalf("expected case-insensitive match, got %q", got)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	tbl := testTable()
	first := tbl.Resolve("symptômes et médicament")
	for i := 0; i < 10; i++ {
		if got := tbl.Resolve("symptômes et médicament"); got != first {
			t.Fatalf("resolve is not deterministic: %q vs %q", got, first)
		}
	}
}

func TestResolve_DoesNotMutateTable(t *testing.T) {
	tbl := testTable()
	before := len(tbl.Rules)
	tbl.Resolve("médicament")
	tbl.Resolve("Bonjour")
	if len(tbl.Rules) != before || tbl.Rules[0].Keyword != "Rappel médicament" {
		t.Fatal("resolve mutated the rule table")
	}
}

func TestCardiacTable_OrderAndDefault(t *testing.T) {
	tbl := CardiacTable()
	if len(tbl.Rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(tbl.Rules))
	}
	if tbl.Rules[0].Keyword != "Rappel médicament" {
		t.Errorf("unexpected first rule: %q", tbl.Rules[0].Keyword)
	}
	if tbl.Resolve("Bonjour") != tbl.Default {
		t.Error("unmatched input must resolve to the default")
	}
}
