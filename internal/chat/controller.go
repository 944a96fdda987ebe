package chat

import (
	"context"
	"strings"
	"time"

	"cardiac-assistant/internal/rules"
	"cardiac-assistant/internal/transcript"
	"cardiac-assistant/pkg"
)

// ServerErrorMessage is rendered as a bot turn when the remote backend
// cannot be reached. Transport failures never surface as faults.
const ServerErrorMessage = "Erreur : Impossible de contacter le serveur."

// Asker sends one question to the remote backend and returns its reply.
// The HTTP client against POST /ask is the production implementation.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Scheduler runs a callback after a delay. Keeping it injectable lets tests
// run with a synchronous zero-delay scheduler instead of wall-clock waits.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// TimerScheduler schedules callbacks on real timers.
type TimerScheduler struct{}

func (TimerScheduler) After(d time.Duration, fn func()) { time.AfterFunc(d, fn) }

// Controller orchestrates a conversation: user submissions flow to the
// transcript first, then to either the local rule table (after a simulated
// thinking delay) or the remote backend. The user's entry always renders
// before its reply; a second rapid submission does not cancel a pending
// reply, both eventually append.
type Controller struct {
	log   *transcript.Log
	table rules.Table
	asker Asker
	sched Scheduler

	// ReplyDelay spaces the simulated bot reply in local mode. GreetDelay
	// spaces the opening greeting after page load.
	ReplyDelay time.Duration
	GreetDelay time.Duration

	input string
}

// NewLocal builds a controller in local simulated mode: replies come from
// the rule table after ReplyDelay.
func NewLocal(log *transcript.Log, table rules.Table, sched Scheduler) *Controller {
	return &Controller{
		log:        log,
		table:      table,
		sched:      sched,
		ReplyDelay: time.Second,
		GreetDelay: 500 * time.Millisecond,
	}
}

// NewRemote builds a controller in remote mode: replies come from the
// backend via the asker. The table still provides the greeting default.
func NewRemote(log *transcript.Log, table rules.Table, asker Asker, sched Scheduler) *Controller {
	c := NewLocal(log, table, sched)
	c.asker = asker
	return c
}

// SetInput replaces the pending input field, the way typing does.
func (c *Controller) SetInput(text string) { c.input = text }

// Input returns the pending input field contents.
func (c *Controller) Input() string { return c.input }

// Submit sends the pending input through the conversation. Empty or
// whitespace-only input is silently ignored: nothing renders and no timer
// or network work is scheduled. Otherwise the user entry renders, the input
// field clears, and the reply follows per the controller's mode.
func (c *Controller) Submit(ctx context.Context) {
	message := strings.TrimSpace(c.input)
	if message == "" {
		return
	}
	c.log.Append(pkg.SenderUser, message)
	c.input = ""

	if c.asker != nil {
		reply, err := c.asker.Ask(ctx, message)
		if err != nil {
			reply = ServerErrorMessage
		}
		c.log.Append(pkg.SenderBot, reply)
		return
	}
	c.sched.After(c.ReplyDelay, func() {
		c.log.Append(pkg.SenderBot, c.table.Resolve(message))
	})
}

// QuickReply populates the input with a canned query and submits it through
// the same path as manual typing.
func (c *Controller) QuickReply(ctx context.Context, query string) {
	c.SetInput(query)
	c.Submit(ctx)
}

// Greet schedules the default response as the conversation's opening bot
// turn, without requiring user action.
func (c *Controller) Greet() {
	c.sched.After(c.GreetDelay, func() {
		c.log.Append(pkg.SenderBot, c.table.Default)
	})
}
