package delivery

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"certsender/internal/phone"
	"certsender/internal/types"
)

// DefaultGreeting is the message template sent before the certificate.
// {name} is replaced with the recipient's first name.
const DefaultGreeting = "Hola {name}, te envío tu certificado. Saludos."

// DefaultDelay is the fixed pause between recipients, throttling against the
// remote service.
const DefaultDelay = 3 * time.Second

// ChatSession is the remote-UI capability the engine needs: open a chat
// addressed to a phone number, type a message, upload a file. The chromedp
// Session implements it; tests substitute fakes.
type ChatSession interface {
	OpenChat(ctx context.Context, phoneDigits string) error
	SendText(ctx context.Context, message string) error
	SendAttachment(ctx context.Context, path string) error
}

// Options configures a delivery run.
type Options struct {
	// Greeting template; {name} expands to the first name. Empty uses DefaultGreeting.
	Greeting string
	// Delay between recipients, applied regardless of outcome. Negative means zero.
	Delay time.Duration
	// StrictPhone rejects numbers that fail libphonenumber validation
	// before any session work. Default keeps the permissive pass-through.
	StrictPhone bool
	// Logf receives human-readable progress lines. Optional.
	Logf func(format string, args ...any)
	// OnOutcome is called after each recipient is recorded. Optional.
	OnOutcome func(done, total int, outcome types.Outcome)
}

// Engine processes selected recipients strictly sequentially: one recipient
// is fully processed before the next starts, and a stop request only takes
// effect between recipients.
type Engine struct {
	session ChatSession
	opts    Options
	stop    atomic.Bool
}

// NewEngine builds an engine over the given chat session.
func NewEngine(session ChatSession, opts Options) *Engine {
	if opts.Greeting == "" {
		opts.Greeting = DefaultGreeting
	}
	if opts.Delay == 0 {
		opts.Delay = DefaultDelay
	}
	return &Engine{session: session, opts: opts}
}

// Stop requests a cooperative stop. The in-flight recipient finishes; the
// loop exits before starting the next one.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Run delivers to every recipient in order and returns the sent and not-sent
// outcome sets. Nothing inside the loop is fatal to the run; individual
// failures are recorded and the loop continues.
func (e *Engine) Run(ctx context.Context, recipients []types.Recipient) (sent, notSent []types.Outcome) {
	total := len(recipients)
	for i, r := range recipients {
		if e.stop.Load() {
			e.logf("delivery stopped by user after %d of %d", i, total)
			break
		}

		outcome := e.deliver(ctx, r)
		if outcome.Delivered() {
			sent = append(sent, outcome)
		} else {
			notSent = append(notSent, outcome)
		}
		if e.opts.OnOutcome != nil {
			e.opts.OnOutcome(i+1, total, outcome)
		}

		e.pause(ctx)
	}
	return sent, notSent
}

// deliver runs the per-recipient state machine:
// Precheck -> OpenSession -> SendText -> SendAttachment -> Recorded.
func (e *Engine) deliver(ctx context.Context, r types.Recipient) types.Outcome {
	// Precheck: without a verified file there is nothing to send and the
	// session is never opened.
	if !r.Found || r.FilePath == "" || !fileExists(r.FilePath) {
		e.logf("%s: certificate not found", r.Display)
		return types.Outcome{Recipient: r, Status: types.StatusNoFile}
	}

	if e.opts.StrictPhone {
		if err := phone.Validate(r.Phone); err != nil {
			e.logf("%s: %v", r.Display, err)
			return types.Outcome{Recipient: r, Status: types.StatusSendError, Detail: fmt.Sprintf("invalid phone: %v", err)}
		}
	}

	e.logf("%s: opening chat...", r.Display)
	if err := e.session.OpenChat(ctx, phone.Digits(r.Phone)); err != nil {
		e.logf("%s: chat did not become ready: %v", r.Display, err)
		return types.Outcome{Recipient: r, Status: types.StatusSendError, Detail: fmt.Sprintf("chat open: %v", err)}
	}

	// A failed greeting is logged but never aborts the recipient; the
	// attachment is still attempted.
	message := strings.ReplaceAll(e.opts.Greeting, "{name}", strings.TrimSpace(r.FirstName))
	if err := e.session.SendText(ctx, message); err != nil {
		e.logf("%s: greeting failed (continuing with attachment): %v", r.Display, err)
	} else {
		e.logf("%s: greeting sent", r.Display)
	}

	if err := e.session.SendAttachment(ctx, r.FilePath); err != nil {
		e.logf("%s: attachment failed: %v", r.Display, err)
		return types.Outcome{Recipient: r, Status: types.StatusSendError, Detail: fmt.Sprintf("attachment: %v", err)}
	}

	e.logf("%s: certificate delivered", r.Display)
	return types.Outcome{Recipient: r, Status: types.StatusSent}
}

// pause applies the fixed inter-recipient delay regardless of outcome.
func (e *Engine) pause(ctx context.Context) {
	if e.opts.Delay <= 0 {
		return
	}
	select {
	case <-time.After(e.opts.Delay):
	case <-ctx.Done():
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.opts.Logf != nil {
		e.opts.Logf(format, args...)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
