// Package kb holds the medical knowledge base: a vector index over the
// cardiac knowledge file that the /ask answerer consults for
// retrieval-augmented replies.
package kb

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/philippgille/chromem-go"
)

const (
	collectionName = "medical_knowledge"
	chunkSize      = 1000
	// MaxFileSize bounds the knowledge file; anything larger is refused.
	MaxFileSize = 100 * 1024 * 1024
)

// KnowledgeBase wraps a chromem collection built from the knowledge file.
// The index is rebuilt in memory at startup.
type KnowledgeBase struct {
	collection *chromem.Collection
	count      int
}

// New reads the knowledge file, splits it into paragraph chunks and indexes
// them. The embedding function may be nil to use the library default.
func New(path string, embed chromem.EmbeddingFunc) (*KnowledgeBase, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("knowledge file too large: %d bytes", info.Size())
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	chunks := chunkText(string(text), chunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("knowledge file %s holds no text", path)
	}

	db := chromem.NewDB()
	collection, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	for i, chunk := range chunks {
		err := collection.AddDocument(context.Background(), chromem.Document{
			ID:      fmt.Sprintf("chunk_%d", i),
			Content: chunk,
		})
		if err != nil {
			return nil, fmt.Errorf("index chunk %d: %w", i, err)
		}
	}
	return &KnowledgeBase{collection: collection, count: len(chunks)}, nil
}

// Count returns the number of indexed chunks.
func (k *KnowledgeBase) Count() int { return k.count }

// Retrieve returns up to limit passages relevant to the question, most
// similar first.
func (k *KnowledgeBase) Retrieve(ctx context.Context, question string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 3
	}
	if limit > k.count {
		limit = k.count
	}
	results, err := k.collection.Query(ctx, question, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query knowledge base: %w", err)
	}
	passages := make([]string, 0, len(results))
	for _, r := range results {
		passages = append(passages, r.Content)
	}
	return passages, nil
}

// chunkText splits text on blank lines and packs paragraphs into chunks of
// at most maxSize characters. A single oversized paragraph becomes its own
// chunk rather than being dropped.
func chunkText(text string, maxSize int) []string {
	var chunks []string
	var current strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para) > maxSize {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
