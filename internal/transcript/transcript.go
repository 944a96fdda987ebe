package transcript

import (
	"html"
	"strings"
	"time"

	"cardiac-assistant/pkg"
)

// Sink receives rendered transcript entries. The page's message container
// is one implementation; tests supply their own.
type Sink interface {
	// AppendHTML inserts a rendered entry at the end of the visible log.
	AppendHTML(entry string)
	// ScrollToBottom forces the view to the newest entry.
	ScrollToBottom()
}

// Log is the append-only conversation transcript. Entries are timestamped
// on insertion and never edited, removed or reordered for the lifetime of
// the page view.
type Log struct {
	sink    Sink
	now     func() time.Time
	entries []pkg.Message
}

// NewLog constructs a transcript bound to a sink. The now function stamps
// entries; pass time.Now outside of tests.
func NewLog(sink Sink, now func() time.Time) *Log {
	if now == nil {
		now = time.Now
	}
	return &Log{sink: sink, now: now}
}

// Append records the message, renders it and scrolls the view to it.
func (l *Log) Append(sender pkg.Sender, text string) pkg.Message {
	m := pkg.Message{Sender: sender, Text: text, Timestamp: l.now()}
	l.entries = append(l.entries, m)
	l.sink.AppendHTML(RenderEntry(m))
	l.sink.ScrollToBottom()
	return m
}

// Entries returns a copy of the transcript in insertion order.
func (l *Log) Entries() []pkg.Message {
	out := make([]pkg.Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// RenderEntry produces the HTML snippet for one message. The text is
// escaped, then embedded newlines become <br> so multi-line bot responses
// keep their visual line breaks; no other characters are altered. The
// timestamp shows as hours and minutes only.
func RenderEntry(m pkg.Message) string {
	text := strings.ReplaceAll(html.EscapeString(m.Text), "\n", "<br>")
	var b strings.Builder
	b.WriteString(`<div class="message ` + string(m.Sender) + `-message">`)
	b.WriteString(`<div class="message-content">`)
	b.WriteString(`<div class="message-text">` + text + `</div>`)
	b.WriteString(`<div class="message-time">` + m.Timestamp.Format("15:04") + `</div>`)
	b.WriteString(`</div></div>`)
	return b.String()
}
