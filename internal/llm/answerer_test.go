package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cardiac-assistant/internal/rules"
)

type stubClient struct {
	reply string
	err   error
	seen  [][]Message
}

func (s *stubClient) Chat(_ context.Context, messages []Message) (string, error) {
	s.seen = append(s.seen, messages)
	return s.reply, s.err
}

type stubRetriever struct {
	passages []string
	err      error
}

func (s *stubRetriever) Retrieve(context.Context, string, int) ([]string, error) {
	return s.passages, s.err
}

func fallbackTable() rules.Table {
	return rules.Table{
		Rules:   []rules.Rule{{Keyword: "symptômes", Response: "Douleur thoracique, essoufflement, fatigue."}},
		Default: "Je suis votre assistant cardiaque.",
	}
}

func TestAnswer_PrefersModelReply(t *testing.T) {
	a := NewAnswerer(&stubClient{reply: "Réponse du modèle"}, nil, fallbackTable())
	if got := a.Answer(context.Background(), "Quels sont les symptômes ?"); got != "Réponse du modèle" {
		t.Fatalf("Answer = %q", got)
	}
}

func TestAnswer_GroundsPromptWithRetrievedPassages(t *testing.T) {
	client := &stubClient{reply: "Réponse ancrée"}
	retriever := &stubRetriever{passages: []string{
		"Les symptômes incluent douleur thoracique.",
		"Consultez en cas d'essoufflement.",
	}}
	a := NewAnswerer(client, retriever, fallbackTable())

	if got := a.Answer(context.Background(), "Quels sont les symptômes ?"); got != "Réponse ancrée" {
		t.Fatalf("Answer = %q", got)
	}
	if len(client.seen) != 1 {
		t.Fatalf("expected one completion call, got %d", len(client.seen))
	}
	msgs := client.seen[0]
	if len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(msgs))
	}
	if !strings.Contains(msgs[0].Content, ContextPrompt) {
		t.Error("grounded completion must carry the context prompt")
	}
	if !strings.Contains(msgs[1].Content, "Les symptômes incluent douleur thoracique.") ||
		!strings.Contains(msgs[1].Content, "Question: Quels sont les symptômes ?") {
		t.Errorf("user message missing passages or question: %q", msgs[1].Content)
	}
}

func TestAnswer_RetrievalFailureStillCompletes(t *testing.T) {
	client := &stubClient{reply: "Réponse simple"}
	a := NewAnswerer(client, &stubRetriever{err: errors.New("index unavailable")}, fallbackTable())

	if got := a.Answer(context.Background(), "Bonjour"); got != "Réponse simple" {
		t.Fatalf("Answer = %q", got)
	}
	msgs := client.seen[0]
	if strings.Contains(msgs[0].Content, ContextPrompt) {
		t.Error("failed retrieval must not produce a grounded prompt")
	}
}

func TestAnswer_EmptyRetrievalSkipsGrounding(t *testing.T) {
	client := &stubClient{reply: "Réponse simple"}
	a := NewAnswerer(client, &stubRetriever{}, fallbackTable())

	a.Answer(context.Background(), "Bonjour")
	if strings.Contains(client.seen[0][0].Content, ContextPrompt) {
		t.Error("empty retrieval must not produce a grounded prompt")
	}
}

func TestAnswer_ModelFailureFallsBackToRules(t *testing.T) {
	a := NewAnswerer(&stubClient{err: errors.New("quota exceeded")}, &stubRetriever{passages: []string{"contexte"}}, fallbackTable())
	if got := a.Answer(context.Background(), "Quels sont les symptômes ?"); got != "Douleur thoracique, essoufflement, fatigue." {
		t.Fatalf("Answer = %q", got)
	}
}

func TestAnswer_EmptyModelReplyFallsBack(t *testing.T) {
	a := NewAnswerer(&stubClient{reply: ""}, nil, fallbackTable())
	if got := a.Answer(context.Background(), "Bonjour"); got != "Je suis votre assistant cardiaque." {
		t.Fatalf("Answer = %q", got)
	}
}

func TestAnswer_NilClientRunsRulesOnly(t *testing.T) {
	a := NewAnswerer(nil, nil, fallbackTable())
	if got := a.Answer(context.Background(), "mes symptômes"); got != "Douleur thoracique, essoufflement, fatigue." {
		t.Fatalf("Answer = %q", got)
	}
}
