package delivery

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

const (
	// LandingURL is the WhatsApp Web entry page.
	LandingURL = "https://web.whatsapp.com"

	// LoginTimeout bounds how long a fresh session may wait for the QR scan.
	LoginTimeout = 180 * time.Second

	composerTimeout = 20 * time.Second
	locatorTimeout  = 5 * time.Second
	sendAttempts    = 5
	sendPollDelay   = 500 * time.Millisecond
	settleDelay     = 2 * time.Second
	attachDelay     = 1 * time.Second
	previewDelay    = 3 * time.Second
)

// Session is a controllable WhatsApp Web browser session backed by a
// persistent Chrome profile, so the QR login survives across runs.
type Session struct {
	ctx     context.Context
	cancels []context.CancelFunc
	verbose bool
}

// NewSession launches Chrome with the given profile directory. A launch
// failure here aborts the whole run before any recipient is processed.
func NewSession(ctx context.Context, profileDir string, headless, verbose bool) (*Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(profileDir),
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1200, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so a missing Chrome surfaces now.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &Session{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
		verbose: verbose,
	}, nil
}

// Close shuts the browser down.
func (s *Session) Close() {
	for _, cancel := range s.cancels {
		cancel()
	}
}

// Open navigates to the WhatsApp Web landing page. Calling Open on an
// already-open session just re-navigates; it never relaunches the browser.
func (s *Session) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := chromedp.Run(s.ctx, chromedp.Navigate(LandingURL)); err != nil {
		return fmt.Errorf("failed to open WhatsApp Web: %w", err)
	}
	return nil
}

// WaitLogin blocks until the logged-in chat list is visible, bounded by
// timeout. A fresh profile needs the operator to scan the QR code first.
func (s *Session) WaitLogin(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	waitCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()

	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(SearchLocator.Query, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("no logged-in session detected within %s: %w", timeout, err)
	}
	if s.verbose {
		log.Printf("[SESSION] WhatsApp Web session detected")
	}
	return nil
}

// OpenChat navigates to the deep link for a phone number and waits for the
// message composer to appear. The wait is bounded; a timeout means the chat
// never became ready (wrong number, or WhatsApp is still loading).
func (s *Session) OpenChat(ctx context.Context, phoneDigits string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	url := fmt.Sprintf("%s/send?phone=%s&app_absent=0", LandingURL, phoneDigits)
	if s.verbose {
		log.Printf("[SESSION] Opening chat: %s", url)
	}

	openCtx, cancel := context.WithTimeout(s.ctx, composerTimeout)
	defer cancel()

	err := chromedp.Run(openCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible(ComposerLocator.Query, chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
	)
	if err != nil {
		return fmt.Errorf("chat composer not ready for %s: %w", phoneDigits, err)
	}
	return nil
}

// SendText sends a text message with two fallback methods: direct JS
// injection with a dispatched input event, then a simulated
// click-focus-type-Enter sequence.
func (s *Session) SendText(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.sendTextJS(message); err == nil {
		return nil
	} else if s.verbose {
		log.Printf("[SESSION] JS text injection failed: %v", err)
	}

	return s.sendTextKeys(message)
}

func (s *Session) sendTextJS(message string) error {
	script := fmt.Sprintf(`(function(text) {
		const box = document.querySelector(%q);
		if (!box) return false;
		box.innerHTML = '';
		box.textContent = text;
		box.dispatchEvent(new InputEvent('input', {bubbles: true, inputType: 'insertText', data: text}));
		setTimeout(function() {
			const btn = document.querySelector(%q);
			if (btn) btn.click();
		}, 100);
		return true;
	})(%q)`, ComposerLocator.Query, SendButtonLocator.Query, message)

	runCtx, cancel := context.WithTimeout(s.ctx, locatorTimeout)
	defer cancel()

	var ok bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("text injection script failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("composer element not found")
	}
	return chromedp.Run(s.ctx, chromedp.Sleep(settleDelay))
}

func (s *Session) sendTextKeys(message string) error {
	runCtx, cancel := context.WithTimeout(s.ctx, composerTimeout)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(ComposerLocator.Query, chromedp.ByQuery),
		chromedp.Click(ComposerLocator.Query, chromedp.ByQuery),
		chromedp.SendKeys(ComposerLocator.Query, message+kb.Enter, chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
	)
	if err != nil {
		return fmt.Errorf("keyboard send failed: %w", err)
	}
	return nil
}

// SendAttachment uploads a file into the open chat and confirms the preview:
// attach control via its locator chain, file path into the hidden input,
// then a bounded poll for the preview send control, with a programmatic
// scan-and-click as the last resort.
func (s *Session) SendAttachment(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attach, err := s.firstVisible(AttachLocators())
	if err != nil {
		return fmt.Errorf("attach control not found: %w", err)
	}
	if err := s.clickLocator(attach); err != nil {
		return fmt.Errorf("attach control click failed: %w", err)
	}
	_ = chromedp.Run(s.ctx, chromedp.Sleep(attachDelay))

	if err := s.uploadFile(path); err != nil {
		return err
	}
	_ = chromedp.Run(s.ctx, chromedp.Sleep(previewDelay))

	for attempt := 0; attempt < sendAttempts; attempt++ {
		if send, err := s.firstVisible(AttachmentSendLocators()); err == nil {
			if err := s.clickLocator(send); err == nil {
				return chromedp.Run(s.ctx, chromedp.Sleep(settleDelay))
			}
		}
		_ = chromedp.Run(s.ctx, chromedp.Sleep(sendPollDelay))
	}

	if s.scanAndClick(AttachmentSendLocators()) {
		return chromedp.Run(s.ctx, chromedp.Sleep(settleDelay))
	}
	return fmt.Errorf("attachment send control never became clickable")
}

func (s *Session) uploadFile(path string) error {
	var lastErr error
	for _, loc := range FileInputLocators() {
		runCtx, cancel := context.WithTimeout(s.ctx, locatorTimeout)
		err := chromedp.Run(runCtx, chromedp.SetUploadFiles(loc.Query, []string{path}, chromedp.ByQuery))
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("file input not found: %w", lastErr)
}

// firstVisible evaluates a locator chain first-success-wins: a DOM snapshot
// narrows the chain to selectors that exist, then a live check confirms the
// first visible one.
func (s *Session) firstVisible(locs []Locator) (Locator, error) {
	runCtx, cancel := context.WithTimeout(s.ctx, locatorTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return Locator{}, fmt.Errorf("snapshot failed: %w", err)
	}

	for _, loc := range SnapshotFilter(html, locs) {
		script := fmt.Sprintf(
			`(function(){const el=document.querySelector(%q);return !!(el && el.offsetParent !== null && !el.disabled);})()`,
			loc.Query)
		var visible bool
		if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &visible)); err != nil {
			continue
		}
		if visible {
			return loc, nil
		}
	}
	return Locator{}, fmt.Errorf("no locator in chain matched a visible element (%d candidates)", len(locs))
}

// clickLocator clicks via JS so icon spans resolve to their clickable parent.
func (s *Session) clickLocator(loc Locator) error {
	script := fmt.Sprintf(`(function(){
		const el = document.querySelector(%q);
		if (!el) return false;
		const target = (el.tagName === 'SPAN' && el.parentElement) ? el.parentElement : el;
		target.click();
		return true;
	})()`, loc.Query)

	runCtx, cancel := context.WithTimeout(s.ctx, locatorTimeout)
	defer cancel()

	var ok bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("click %s: %w", loc.Name, err)
	}
	if !ok {
		return fmt.Errorf("click %s: element vanished", loc.Name)
	}
	return nil
}

// scanAndClick is the programmatic equivalent of the locator poll: one JS
// pass over the whole chain that clicks the first visible candidate.
func (s *Session) scanAndClick(locs []Locator) bool {
	script := fmt.Sprintf(`(function(){
		const nodes = document.querySelectorAll(%q);
		for (const el of nodes) {
			if (el.offsetParent !== null) {
				if (el.tagName === 'SPAN' && el.parentElement) { el.parentElement.click(); } else { el.click(); }
				return true;
			}
		}
		return false;
	})()`, strings.Join(queries(locs), ", "))

	runCtx, cancel := context.WithTimeout(s.ctx, locatorTimeout)
	defer cancel()

	var ok bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(script, &ok)); err != nil {
		return false
	}
	return ok
}
