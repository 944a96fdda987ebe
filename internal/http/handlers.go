package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"cardiac-assistant/internal/db"
	"cardiac-assistant/internal/profile"
	"cardiac-assistant/internal/webchat"
	"cardiac-assistant/pkg"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/lib/pq"
	"github.com/rs/cors"
)

// EmptyQuestionReply is returned by /ask for blank questions; the endpoint
// never errors on them.
const EmptyQuestionReply = "Veuillez poser une question sur les maladies cardiaques."

// Answerer resolves a question to response text, never failing.
type Answerer interface {
	Answer(ctx context.Context, question string) string
}

// UserStore is the account storage the auth endpoints need.
type UserStore interface {
	CreateUser(ctx context.Context, email, password string, role pkg.Role) (*db.User, error)
	Authenticate(ctx context.Context, email, password string) (*db.User, error)
}

// MessageLog records /ask exchanges server-side and reads them back for
// the doctor-side conversation view.
type MessageLog interface {
	LogMessage(ctx context.Context, conversationID string, sender pkg.Sender, content string) (*db.LoggedMessage, error)
	GetConversation(ctx context.Context, conversationID string) ([]db.LoggedMessage, error)
}

// Notifier announces logged conversations for doctor-side consumers.
type Notifier interface {
	Notify(ctx context.Context, conversationID string) error
}

// ConversationListener yields conversation ids as they are announced; the
// SSE stream endpoint drains it. Each call opens its own listener.
type ConversationListener interface {
	Listen(ctx context.Context) (<-chan string, error)
}

// Server bundles together the dependencies required by HTTP handlers. It
// implements http.Handler so it can be passed to http.ListenAndServe.
type Server struct {
	Users    UserStore
	Log      MessageLog
	Notifier Notifier
	Listener ConversationListener
	Answer   Answerer
	Tokens   *webchat.TokenService

	// JWTSecret signs the token embedded in the login user record.
	JWTSecret []byte
	// WebchatDomain is the message endpoint handed to the embedded widget.
	WebchatDomain string

	handler http.Handler
}

// NewServer constructs a Server with its routes and CORS policy wired. The
// allowed origins list mirrors the deployment's front-end hosts.
func NewServer(users UserStore, messageLog MessageLog, notifier Notifier, listener ConversationListener, answer Answerer, tokens *webchat.TokenService, jwtSecret []byte, webchatDomain string, allowedOrigins []string) *Server {
	s := &Server{
		Users:         users,
		Log:           messageLog,
		Notifier:      notifier,
		Listener:      listener,
		Answer:        answer,
		Tokens:        tokens,
		JWTSecret:     jwtSecret,
		WebchatDomain: webchatDomain,
	}
	r := mux.NewRouter()
	r.HandleFunc("/ask", s.handleAsk).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/api/conversations/stream", s.handleConversationStream).Methods(http.MethodGet)
	r.HandleFunc("/api/conversations/{id}", s.handleConversation).Methods(http.MethodGet)
	r.HandleFunc("/api/webchat/config", s.handleWebchatConfig).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	s.handler = c.Handler(r)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// handleAsk resolves a question and returns {response}. Each non-empty
// exchange is logged under a fresh conversation id and announced to the
// notify channel; logging failures never block the reply.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req pkg.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInputValidation, "Le corps de la requête doit être en JSON")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeJSON(w, http.StatusOK, pkg.AskResponse{Response: EmptyQuestionReply})
		return
	}
	response := s.Answer.Answer(ctx, question)
	if s.Log != nil {
		conversationID := db.NewConversationID()
		if _, err := s.Log.LogMessage(ctx, conversationID, pkg.SenderUser, question); err != nil {
			log.Println("failed to log question:", err)
		}
		if _, err := s.Log.LogMessage(ctx, conversationID, pkg.SenderBot, response); err != nil {
			log.Println("failed to log response:", err)
		}
		if s.Notifier != nil {
			if err := s.Notifier.Notify(ctx, conversationID); err != nil {
				log.Println("failed to notify:", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, pkg.AskResponse{Response: response})
}

// handleLogin verifies credentials plus role and returns the session record
// the client persists. Failures carry a French message and a false success
// flag; the client shows them verbatim.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req pkg.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, pkg.LoginResponse{Success: false, Message: "Requête invalide"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, pkg.LoginResponse{Success: false, Message: "Email et mot de passe requis"})
		return
	}
	user, err := s.Users.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, db.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, pkg.LoginResponse{Success: false, Message: "Email ou mot de passe invalide"})
		return
	}
	if err != nil {
		log.Println("login failed:", err)
		writeJSON(w, http.StatusInternalServerError, pkg.LoginResponse{Success: false, Message: "Erreur interne du serveur"})
		return
	}
	if req.Role != "" && req.Role != user.Role {
		writeJSON(w, http.StatusUnauthorized, pkg.LoginResponse{Success: false, Message: "Rôle invalide pour ce compte"})
		return
	}
	token, err := s.signToken(user)
	if err != nil {
		log.Println("token signing failed:", err)
		writeJSON(w, http.StatusInternalServerError, pkg.LoginResponse{Success: false, Message: "Erreur interne du serveur"})
		return
	}
	redirect := "/profile"
	if user.Role == pkg.RoleMedecin {
		redirect = "/doctor"
	}
	writeJSON(w, http.StatusOK, pkg.LoginResponse{
		Success:  true,
		Redirect: redirect,
		User: &pkg.UserSession{
			ID:    user.ID,
			Email: user.Email,
			Role:  user.Role,
			Token: token,
		},
	})
}

// handleRegister creates an account. Duplicate emails are reported with a
// French message rather than a bare constraint error.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req pkg.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, pkg.LoginResponse{Success: false, Message: "Requête invalide"})
		return
	}
	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, pkg.LoginResponse{Success: false, Message: "Email et mot de passe requis"})
		return
	}
	role := req.Role
	if role == "" {
		role = pkg.RolePatient
	}
	user, err := s.Users.CreateUser(ctx, req.Email, req.Password, role)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			writeJSON(w, http.StatusConflict, pkg.LoginResponse{Success: false, Message: "Email déjà utilisé"})
			return
		}
		log.Println("register failed:", err)
		writeJSON(w, http.StatusInternalServerError, pkg.LoginResponse{Success: false, Message: "Erreur interne du serveur"})
		return
	}
	writeJSON(w, http.StatusCreated, pkg.LoginResponse{
		Success: true,
		User:    &pkg.UserSession{ID: user.ID, Email: user.Email, Role: user.Role},
	})
}

// handlePredict derives a risk level from a flat feature vector.
func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req pkg.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInputValidation, "Le corps de la requête doit être en JSON")
		return
	}
	if len(req.Features) == 0 {
		writeError(w, http.StatusBadRequest, CodeMissingData, "Le champ 'features' est manquant")
		return
	}
	risk, err := profile.RiskFromFeatures(req.Features)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodePrediction, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pkg.PredictResponse{Risk: risk})
}

// handleConversation returns the logged messages of one conversation for
// the doctor-side view.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	if s.Log == nil {
		writeError(w, http.StatusServiceUnavailable, CodeInternal, "Le journal des conversations n'est pas disponible")
		return
	}
	conversationID := mux.Vars(r)["id"]
	messages, err := s.Log.GetConversation(r.Context(), conversationID)
	if err != nil {
		log.Println("failed to load conversation:", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Erreur interne du serveur")
		return
	}
	if len(messages) == 0 {
		writeError(w, http.StatusNotFound, CodeMissingData, "Conversation introuvable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversation": messages})
}

// handleConversationStream streams conversation ids as server-sent events
// while they are announced on the notify channel. The stream closes when
// the client goes away.
func (s *Server) handleConversationStream(w http.ResponseWriter, r *http.Request) {
	if s.Listener == nil {
		writeError(w, http.StatusServiceUnavailable, CodeInternal, "Le flux de conversations n'est pas disponible")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, CodeInternal, "streaming unsupported")
		return
	}
	ch, err := s.Listener.Listen(r.Context())
	if err != nil {
		log.Println("failed to open conversation stream:", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, "Erreur interne du serveur")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()
	for conversationID := range ch {
		payload, err := json.Marshal(map[string]string{
			"type":            "conversation_update",
			"conversation_id": conversationID,
		})
		if err != nil {
			continue
		}
		if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}
}

// handleWebchatConfig hands the embedded widget its connection record.
func (s *Server) handleWebchatConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, webchat.NewConfig(s.Tokens, s.WebchatDomain))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) signToken(user *db.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.JWTSecret)
}
