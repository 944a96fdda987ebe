// Package webchat covers the embeddable chat widget boundary: it issues the
// Direct Line style connection record the widget needs and the scripted
// greeting activity sent after mount.
package webchat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GreetDelay is how long after widget mount the scripted greeting activity
// is posted.
const GreetDelay = time.Second

// DefaultUsername labels the ephemeral widget user.
const DefaultUsername = "Utilisateur"

// StyleOptions is the widget style record handed to the embedded webchat.
type StyleOptions struct {
	BubbleBackground         string `json:"bubbleBackground"`
	BubbleBorderRadius       int    `json:"bubbleBorderRadius"`
	BubbleFromUserBackground string `json:"bubbleFromUserBackground"`
	BubbleFromUserTextColor  string `json:"bubbleFromUserTextColor"`
	SendBoxButtonColor       string `json:"sendBoxButtonColor"`
	SendBoxHeight            int    `json:"sendBoxHeight"`
	BackgroundColor          string `json:"backgroundColor"`
	RootHeight               string `json:"rootHeight"`
	RootWidth                string `json:"rootWidth"`
}

// DefaultStyle returns the cardiac assistant widget styling.
func DefaultStyle() StyleOptions {
	return StyleOptions{
		BubbleBackground:         "#F5F5F5",
		BubbleBorderRadius:       10,
		BubbleFromUserBackground: "#3498db",
		BubbleFromUserTextColor:  "white",
		SendBoxButtonColor:       "#3498db",
		SendBoxHeight:            50,
		BackgroundColor:          "white",
		RootHeight:               "100%",
		RootWidth:                "100%",
	}
}

// Config is everything the embedded widget needs to connect: an ephemeral
// token, the message endpoint, a generated user id, locale, styling and the
// delay before the mounting page posts the scripted greeting.
type Config struct {
	Token        string       `json:"token"`
	Domain       string       `json:"domain"`
	UserID       string       `json:"userID"`
	Username     string       `json:"username"`
	Locale       string       `json:"locale"`
	GreetDelayMs int          `json:"greetDelayMs"`
	StyleOptions StyleOptions `json:"styleOptions"`
}

// Activity is a Direct Line message activity.
type Activity struct {
	From struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"from"`
	Type string `json:"type"`
	Text string `json:"text"`
}

// Greeting is the scripted opening activity posted GreetDelay after mount
// to start the conversation without user action.
func Greeting(userID string) Activity {
	var a Activity
	a.From.ID = userID
	a.From.Name = DefaultUsername
	a.Type = "message"
	a.Text = "bienvenue"
	return a
}

// NewUserID generates an ephemeral widget user id.
func NewUserID() string {
	return "user-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
}

// TokenService issues and validates short-lived connection tokens. Expired
// tokens are pruned on validation.
type TokenService struct {
	validity time.Duration
	now      func() time.Time

	mu     sync.Mutex
	tokens map[string]time.Time
}

// NewTokenService builds a token service; pass nil for now outside tests.
func NewTokenService(validity time.Duration, now func() time.Time) *TokenService {
	if now == nil {
		now = time.Now
	}
	return &TokenService{
		validity: validity,
		now:      now,
		tokens:   make(map[string]time.Time),
	}
}

// Issue mints a new connection token valid for the service's lifetime.
func (s *TokenService) Issue() string {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = s.now().Add(s.validity)
	s.mu.Unlock()
	return token
}

// Validate reports whether the token was issued here and has not expired.
func (s *TokenService) Validate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if s.now().After(expiry) {
		delete(s.tokens, token)
		return false
	}
	return true
}

// NewConfig assembles a full widget connection record against the given
// message endpoint.
func NewConfig(tokens *TokenService, domain string) Config {
	return Config{
		Token:        tokens.Issue(),
		Domain:       domain,
		UserID:       NewUserID(),
		Username:     DefaultUsername,
		Locale:       "fr-FR",
		GreetDelayMs: int(GreetDelay.Milliseconds()),
		StyleOptions: DefaultStyle(),
	}
}
