package llm

import (
	"context"
	"strings"

	"cardiac-assistant/internal/rules"
)

// ContextPrompt frames retrieval-augmented completions: the model must stay
// within the retrieved passages and defer to a professional otherwise.
const ContextPrompt = "Utilise uniquement les informations du contexte pour répondre à la question. " +
	"Si l'information ne se trouve pas dans le contexte, réponds que tu ne connais pas la réponse " +
	"mais que le patient devrait consulter un professionnel de santé."

// Retriever returns the knowledge passages most relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string, limit int) ([]string, error)
}

const retrievalLimit = 3

// Answerer produces the reply for POST /ask. It retrieves passages from
// the knowledge base to ground the language model's reply, degrades to a
// plain completion when retrieval is unavailable, and falls back to the
// keyword rule table when the model fails, so an answer always comes back.
type Answerer struct {
	llm      Client
	kb       Retriever
	fallback rules.Table
}

// NewAnswerer builds an answerer. A nil client means rules-only operation;
// a nil retriever skips the knowledge-base grounding.
func NewAnswerer(client Client, knowledge Retriever, fallback rules.Table) *Answerer {
	return &Answerer{llm: client, kb: knowledge, fallback: fallback}
}

// Answer resolves a question to response text. It never fails.
func (a *Answerer) Answer(ctx context.Context, question string) string {
	if a.llm != nil {
		reply, err := a.llm.Chat(ctx, a.messages(ctx, question))
		if err == nil && reply != "" {
			return reply
		}
	}
	return a.fallback.Resolve(question)
}

// messages assembles the completion request, grounding it with retrieved
// passages when the knowledge base has any. Retrieval failures are not
// fatal; the question goes through ungrounded.
func (a *Answerer) messages(ctx context.Context, question string) []Message {
	if a.kb != nil {
		passages, err := a.kb.Retrieve(ctx, question, retrievalLimit)
		if err == nil && len(passages) > 0 {
			return []Message{
				{Role: "system", Content: SystemPrompt + " " + ContextPrompt},
				{Role: "user", Content: "Contexte: " + strings.Join(passages, "\n\n") + "\n\nQuestion: " + question},
			}
		}
	}
	return []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: question},
	}
}
