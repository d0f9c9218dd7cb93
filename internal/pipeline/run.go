// Package pipeline provides the high-level orchestration for a delivery run:
// load -> map -> scan -> combine -> deliver -> report.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"certsender/internal/db"
	"certsender/internal/delivery"
	"certsender/internal/match"
	"certsender/internal/normalize"
	"certsender/internal/observability"
	"certsender/internal/reconcile"
	"certsender/internal/report"
	"certsender/internal/sheet"
	"certsender/internal/types"
)

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	Done    int    `json:"done,omitempty"`
	Total   int    `json:"total,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

// Pipeline step names used in progress events.
const (
	StepLoad      = "load_sheet"
	StepScan      = "scan_certificates"
	StepReconcile = "reconcile"
	StepSession   = "session"
	StepDeliver   = "deliver"
	StepReport    = "report"
)

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// SessionFactory builds the chat session a run delivers through. The default
// launches Chrome with a persistent profile; tests substitute fakes.
type SessionFactory func(ctx context.Context) (delivery.ChatSession, func(), error)

// Options holds configuration for running the delivery pipeline.
type Options struct {
	SheetPath  string
	CertDir    string
	ProfileDir string

	Greeting    string
	Delay       time.Duration
	Include     []string
	Exclude     []string
	StrictPhone bool
	Headless    bool
	Verbose     bool
	DatabaseURL string

	// ReconcileOnly stops after printing the recipient list.
	ReconcileOnly bool

	OnProgress ProgressCallback
	Sessions   SessionFactory

	// StopRequested is polled between recipients; wire it to a signal
	// handler for Ctrl-C support. Optional.
	StopRequested func() bool
}

// Summary is the result of a completed (or stopped) run.
type Summary struct {
	RunID      uuid.UUID
	Recipients []types.Recipient
	Sent       []types.Outcome
	NotSent    []types.Outcome
	Reports    []string
}

// emitProgress calls the progress callback if configured
func emitProgress(opts *Options, step, message string, done, total int) {
	if opts.OnProgress != nil {
		opts.OnProgress(ProgressEvent{Step: step, Message: message, Done: done, Total: total})
	}
}

// Reconcile runs the matching half of the pipeline: load the spreadsheet,
// scan the certificate directory, and join the two into a recipient list.
func Reconcile(opts *Options) (*reconcile.Result, sheet.Mapping, *sheet.Table, error) {
	fmt.Printf("Step 1/3: Loading spreadsheet %s...\n", opts.SheetPath)
	table, mapping, err := sheet.Load(opts.SheetPath)
	if err != nil {
		return nil, mapping, nil, fmt.Errorf("spreadsheet load failed: %w", err)
	}
	emitProgress(opts, StepLoad, fmt.Sprintf("Loaded %d rows", len(table.Rows)), 0, 0)

	for _, role := range mapping.UnresolvedRoles() {
		fmt.Printf("Warning: no %s column detected; those fields will be empty\n", role)
	}

	fmt.Printf("Step 2/3: Scanning certificates in %s...\n", opts.CertDir)
	entries, err := match.Scan(opts.CertDir)
	if err != nil {
		return nil, mapping, table, fmt.Errorf("certificate scan failed: %w", err)
	}
	emitProgress(opts, StepScan, fmt.Sprintf("Found %d certificate files", len(entries)), 0, 0)

	fmt.Printf("Step 3/3: Reconciling records against certificates...\n")
	res := reconcile.Combine(table, mapping, entries)
	for _, c := range res.Collisions {
		fmt.Printf("Warning: duplicate certificate key %q: keeping %s, ignoring %s\n", c.Key, c.Kept, c.Dropped)
	}
	applySelection(res.Recipients, opts.Include, opts.Exclude)

	emitProgress(opts, StepReconcile,
		fmt.Sprintf("Matched %d of %d recipients", res.FoundCount(), len(res.Recipients)), 0, 0)
	return res, mapping, table, nil
}

// applySelection adjusts the default selected-iff-found state with the
// include/exclude name filters, matched on normalized names. An explicit
// include list replaces the default selection entirely (it can select a
// recipient with no matched file); exclude always wins.
func applySelection(recipients []types.Recipient, include, exclude []string) {
	includeKeys := normalizeAll(include)
	excludeKeys := normalizeAll(exclude)

	for i := range recipients {
		r := &recipients[i]
		if len(includeKeys) > 0 {
			r.Selected = containsKey(includeKeys, r.Key)
		}
		if containsKey(excludeKeys, r.Key) {
			r.Selected = false
		}
	}
}

func normalizeAll(names []string) []string {
	keys := make([]string, 0, len(names))
	for _, n := range names {
		if k := normalize.Key(n); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

// Selected returns the recipients marked for delivery.
func Selected(recipients []types.Recipient) []types.Recipient {
	var out []types.Recipient
	for _, r := range recipients {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}

// Run orchestrates the full delivery pipeline.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	printer := observability.NewPrinter(os.Stdout)

	res, mapping, table, err := Reconcile(&opts)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		printer.PrintMapping(mapping, table.Header)
	}
	printer.PrintRecipients(res.Recipients)

	summary := &Summary{Recipients: res.Recipients}
	if opts.ReconcileOnly {
		return summary, nil
	}

	selected := Selected(res.Recipients)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no recipients selected for delivery")
	}

	// Optional persistence: a database failure is a warning, not an abort.
	var database *db.DB
	if opts.DatabaseURL != "" {
		database, err = db.Connect(ctx, opts.DatabaseURL)
		if err != nil {
			fmt.Printf("Warning: failed to connect to database: %v\n", err)
			fmt.Printf("Continuing without outcome persistence...\n")
			database = nil
		} else {
			defer database.Close()
			summary.RunID, err = database.CreateRun(ctx, opts.SheetPath, opts.CertDir)
			if err != nil {
				fmt.Printf("Warning: failed to create database run: %v\n", err)
			}
		}
	}

	// Browser launch failure aborts before any recipient is processed.
	factory := opts.Sessions
	if factory == nil {
		factory = chromeSessions(&opts)
	}
	session, closeSession, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("session launch failed: %w", err)
	}
	defer closeSession()
	emitProgress(&opts, StepSession, "Chat session ready", 0, 0)

	fmt.Printf("Delivering to %d recipients...\n", len(selected))
	sent, notSent := runDelivery(ctx, &opts, session, database, summary.RunID, selected)
	summary.Sent, summary.NotSent = sent, notSent

	outDir := filepath.Dir(opts.SheetPath)
	written, err := report.Write(outDir, sent, notSent)
	if err != nil {
		fmt.Printf("Warning: failed to write reports: %v\n", err)
	}
	summary.Reports = written
	if len(written) > 0 {
		emitProgress(&opts, StepReport, fmt.Sprintf("Reports written to %s", outDir), 0, 0)
	}

	if database != nil && summary.RunID != uuid.Nil {
		if err := database.CompleteRun(ctx, summary.RunID, "completed", len(sent), len(notSent)); err != nil {
			fmt.Printf("Warning: failed to complete database run: %v\n", err)
		}
	}

	printer.PrintOutcomes(sent, notSent)
	fmt.Printf("Done. Sent: %d | Not sent: %d\n", len(sent), len(notSent))
	return summary, nil
}

// runDelivery runs the engine on a worker goroutine and consumes its events
// on this one. The worker never touches presentation or persistence state
// directly; everything crosses the channel.
func runDelivery(ctx context.Context, opts *Options, session delivery.ChatSession, database *db.DB, runID uuid.UUID, selected []types.Recipient) (sent, notSent []types.Outcome) {
	type event struct {
		line    string
		outcome *types.Outcome
		done    int
		total   int
	}
	events := make(chan event, len(selected)*4)

	engine := delivery.NewEngine(session, delivery.Options{
		Greeting:    opts.Greeting,
		Delay:       opts.Delay,
		StrictPhone: opts.StrictPhone,
		Logf: func(format string, args ...any) {
			events <- event{line: fmt.Sprintf(format, args...)}
		},
		OnOutcome: func(done, total int, o types.Outcome) {
			events <- event{outcome: &o, done: done, total: total}
		},
	})

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(events)
		if opts.StopRequested != nil {
			// Poll the stop signal between recipients via a watcher that
			// flips the engine's cooperative flag.
			done := make(chan struct{})
			defer close(done)
			go func() {
				ticker := time.NewTicker(200 * time.Millisecond)
				defer ticker.Stop()
				for {
					select {
					case <-done:
						return
					case <-gCtx.Done():
						engine.Stop()
						return
					case <-ticker.C:
						if opts.StopRequested() {
							engine.Stop()
							return
						}
					}
				}
			}()
		}
		sent, notSent = engine.Run(gCtx, selected)
		return nil
	})

	g.Go(func() error {
		for ev := range events {
			if ev.line != "" {
				fmt.Printf("%s\n", ev.line)
			}
			if ev.outcome != nil {
				emitProgress(opts, StepDeliver,
					fmt.Sprintf("%s: %s", ev.outcome.Recipient.Display, ev.outcome.StatusTag()),
					ev.done, ev.total)
				if database != nil && runID != uuid.Nil {
					if err := database.SaveOutcome(gCtx, runID, *ev.outcome); err != nil {
						fmt.Printf("Warning: %v\n", err)
					}
				}
			}
		}
		return nil
	})

	// Neither goroutine returns an error; Wait just joins them.
	_ = g.Wait()
	return sent, notSent
}

// chromeSessions is the default SessionFactory: a persistent-profile Chrome
// pointed at WhatsApp Web, with the login wait bounded.
func chromeSessions(opts *Options) SessionFactory {
	return func(ctx context.Context) (delivery.ChatSession, func(), error) {
		profile := opts.ProfileDir
		if !filepath.IsAbs(profile) {
			cwd, err := os.Getwd()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to resolve profile dir: %w", err)
			}
			profile = filepath.Join(cwd, profile)
		}

		session, err := delivery.NewSession(ctx, profile, opts.Headless, opts.Verbose)
		if err != nil {
			return nil, nil, err
		}
		if err := session.Open(ctx); err != nil {
			session.Close()
			return nil, nil, err
		}
		fmt.Printf("Waiting for WhatsApp Web login (scan the QR code if prompted)...\n")
		if err := session.WaitLogin(ctx, delivery.LoginTimeout); err != nil {
			session.Close()
			return nil, nil, err
		}
		return session, session.Close, nil
	}
}
