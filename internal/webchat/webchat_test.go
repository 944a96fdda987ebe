package webchat

import (
	"strings"
	"testing"
	"time"
)

func TestTokenService_IssueAndValidate(t *testing.T) {
	s := NewTokenService(24*time.Hour, nil)
	token := s.Issue()
	if token == "" {
		t.Fatal("empty token issued")
	}
	if !s.Validate(token) {
		t.Fatal("freshly issued token must validate")
	}
	if s.Validate("never-issued") {
		t.Fatal("unknown token must not validate")
	}
}

func TestTokenService_Expiry(t *testing.T) {
	current := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)
	s := NewTokenService(time.Hour, func() time.Time { return current })

	token := s.Issue()
	if !s.Validate(token) {
		t.Fatal("token must be valid before expiry")
	}
	current = current.Add(2 * time.Hour)
	if s.Validate(token) {
		t.Fatal("token must expire after its validity window")
	}
	// Expired tokens are pruned, not resurrected.
	if s.Validate(token) {
		t.Fatal("expired token validated twice")
	}
}

func TestNewUserID_ShapeAndUniqueness(t *testing.T) {
	a, b := NewUserID(), NewUserID()
	if !strings.HasPrefix(a, "user-") {
		t.Errorf("unexpected id shape: %q", a)
	}
	if a == b {
		t.Error("ids must be unique per generation")
	}
}

func TestNewConfig(t *testing.T) {
	s := NewTokenService(24*time.Hour, nil)
	cfg := NewConfig(s, "http://localhost:8080/api/messages")

	if !s.Validate(cfg.Token) {
		t.Error("config token must be valid")
	}
	if cfg.Domain != "http://localhost:8080/api/messages" {
		t.Errorf("Domain = %q", cfg.Domain)
	}
	if cfg.Locale != "fr-FR" {
		t.Errorf("Locale = %q", cfg.Locale)
	}
	if cfg.Username != DefaultUsername {
		t.Errorf("Username = %q", cfg.Username)
	}
	if cfg.StyleOptions.SendBoxHeight != 50 {
		t.Errorf("unexpected style options: %+v", cfg.StyleOptions)
	}
	if cfg.GreetDelayMs != int(GreetDelay.Milliseconds()) {
		t.Errorf("GreetDelayMs = %d, want %d", cfg.GreetDelayMs, GreetDelay.Milliseconds())
	}
}

func TestGreeting(t *testing.T) {
	a := Greeting("user-abc")
	if a.Type != "message" || a.Text != "bienvenue" {
		t.Errorf("unexpected greeting activity: %+v", a)
	}
	if a.From.ID != "user-abc" || a.From.Name != DefaultUsername {
		t.Errorf("unexpected sender: %+v", a.From)
	}
}
