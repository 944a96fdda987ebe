package chat

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cardiac-assistant/internal/rules"
	"cardiac-assistant/internal/transcript"
	"cardiac-assistant/pkg"
)

// syncScheduler runs callbacks immediately, recording how many were
// scheduled, so tests avoid wall-clock waits.
type syncScheduler struct{ fired int }

func (s *syncScheduler) After(d time.Duration, fn func()) {
	s.fired++
	fn()
}

type nullSink struct{}

func (nullSink) AppendHTML(string) {}
func (nullSink) ScrollToBottom()   {}

type fakeAsker struct {
	reply string
	err   error
	asked []string
}

func (f *fakeAsker) Ask(_ context.Context, q string) (string, error) {
	f.asked = append(f.asked, q)
	return f.reply, f.err
}

func testTable() rules.Table {
	return rules.Table{
		Rules:   []rules.Rule{{Keyword: "Rappel médicament", Response: "Prenez votre médicament"}},
		Default: "Assistant cardiaque",
	}
}

func newLog() *transcript.Log {
	return transcript.NewLog(nullSink{}, func() time.Time {
		return time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)
	})
}

func TestSubmit_LocalMode_UserThenResolvedReply(t *testing.T) {
	log := newLog()
	c := NewLocal(log, testTable(), &syncScheduler{})

	c.SetInput("Je voudrais un Rappel médicament pour demain")
	c.Submit(context.Background())

	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Sender != pkg.SenderUser {
		t.Error("user message must render first")
	}
	if entries[1].Sender != pkg.SenderBot || entries[1].Text != "Prenez votre médicament" {
		t.Errorf("unexpected bot reply: %+v", entries[1])
	}
	if c.Input() != "" {
		t.Error("input field must be cleared on submit")
	}
}

func TestSubmit_EmptyInputIgnored(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t "} {
		log := newLog()
		sched := &syncScheduler{}
		asker := &fakeAsker{reply: "x"}
		c := NewRemote(log, testTable(), asker, sched)

		c.SetInput(input)
		c.Submit(context.Background())

		if n := len(log.Entries()); n != 0 {
			t.Errorf("input %q: expected no entries, got %d", input, n)
		}
		if len(asker.asked) != 0 {
			t.Errorf("input %q: no network call should be made", input)
		}
		if sched.fired != 0 {
			t.Errorf("input %q: no timer should be scheduled", input)
		}
	}
}

func TestSubmit_RemoteMode_RendersBackendReply(t *testing.T) {
	log := newLog()
	asker := &fakeAsker{reply: "Les symptômes incluent douleur thoracique."}
	c := NewRemote(log, testTable(), asker, &syncScheduler{})

	c.SetInput("Quels sont les symptômes ?")
	c.Submit(context.Background())

	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Text != asker.reply {
		t.Errorf("backend reply not rendered verbatim: %q", entries[1].Text)
	}
	if len(asker.asked) != 1 || asker.asked[0] != "Quels sont les symptômes ?" {
		t.Errorf("unexpected outbound question: %v", asker.asked)
	}
}

func TestSubmit_RemoteMode_TransportFailureRendersFallback(t *testing.T) {
	log := newLog()
	asker := &fakeAsker{err: errors.New("connection refused")}
	c := NewRemote(log, testTable(), asker, &syncScheduler{})

	c.SetInput("Bonjour")
	c.Submit(context.Background())

	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].Sender != pkg.SenderBot || entries[1].Text != ServerErrorMessage {
		t.Errorf("expected fallback bot message, got %+v", entries[1])
	}
}

func TestQuickReply_SamePathAsTyping(t *testing.T) {
	log := newLog()
	c := NewLocal(log, testTable(), &syncScheduler{})

	c.QuickReply(context.Background(), "Rappel médicament")

	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Text != "Rappel médicament" || entries[1].Text != "Prenez votre médicament" {
		t.Errorf("quick reply did not follow the submit path: %+v", entries)
	}
}

func TestGreet_OpensWithDefaultResponse(t *testing.T) {
	log := newLog()
	c := NewLocal(log, testTable(), &syncScheduler{})

	c.Greet()

	entries := log.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Sender != pkg.SenderBot || entries[0].Text != "Assistant cardiaque" {
		t.Errorf("unexpected greeting: %+v", entries[0])
	}
}

func TestClient_AskRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ask" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"Réponse du serveur"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Ask(context.Background(), "question")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got != "Réponse du serveur" {
		t.Errorf("unexpected reply: %q", got)
	}
}

func TestClient_AskNonOKStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Ask(context.Background(), "question"); err == nil {
		t.Fatal("expected error on non-OK status")
	}
}
