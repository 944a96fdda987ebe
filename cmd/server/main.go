package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"cardiac-assistant/internal/db"
	httpserver "cardiac-assistant/internal/http"
	"cardiac-assistant/internal/kb"
	"cardiac-assistant/internal/llm"
	"cardiac-assistant/internal/rules"
	"cardiac-assistant/internal/webchat"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/philippgille/chromem-go"
)

func main() {
	// Load environment variables; a missing .env is fine.
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL must be set")
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Println("JWT_SECRET not set, using a development secret")
		jwtSecret = "dev-secret"
	}
	origins := []string{"http://localhost:3000"}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}
	notifyChannel := os.Getenv("POSTGRES_NOTIFY_CHANNEL")
	if notifyChannel == "" {
		notifyChannel = "conversation_updates"
	}
	webchatDomain := os.Getenv("WEBCHAT_DOMAIN")
	if webchatDomain == "" {
		webchatDomain = "http://localhost:" + port + "/api/messages"
	}

	// Open database connection
	dbConn, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbConn.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}
	if err := db.Migrate(context.Background(), dbConn); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	repo := db.NewRepository(dbConn)
	notifier := db.NewNotifier(dbConn, dbURL, notifyChannel)

	// OpenAI client is optional; without a key /ask runs on the rule table.
	llmClient := llm.NewOpenAIClient()
	if llmClient == nil {
		log.Println("OPENAI_API_KEY not set, /ask answers from the rule table")
	}
	var client llm.Client
	if llmClient != nil {
		client = llmClient
	}

	// Index the medical knowledge base; a missing or broken knowledge file
	// only disables retrieval, /ask still answers.
	knowledgeFile := os.Getenv("KNOWLEDGE_FILE")
	if knowledgeFile == "" {
		knowledgeFile = "medical_knowledge.txt"
	}
	var retriever llm.Retriever
	var embed chromem.EmbeddingFunc
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		embed = chromem.NewEmbeddingFuncOpenAI(key, chromem.EmbeddingModelOpenAI3Small)
	}
	if base, err := kb.New(knowledgeFile, embed); err != nil {
		log.Printf("knowledge base unavailable: %v", err)
	} else {
		log.Printf("knowledge base initialized with %d chunks", base.Count())
		retriever = base
	}

	answerer := llm.NewAnswerer(client, retriever, rules.CardiacTable())
	tokens := webchat.NewTokenService(24*time.Hour, nil)

	srv := httpserver.NewServer(repo, repo, notifier, notifier, answerer, tokens, []byte(jwtSecret), webchatDomain, origins)

	addr := ":" + port
	log.Printf("Listening on %s", addr)
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
