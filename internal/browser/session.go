// File: internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Session is one browser tab. It implements Page on top of chromedp.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.BrowserConfig

	closeOnce sync.Once
}

var _ Page = (*Session)(nil)

func newSession(ctx context.Context, cancel context.CancelFunc, cfg config.BrowserConfig, logger *zap.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:     id,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.Named("session").With(zap.String("session_id", id)),
		cfg:    cfg,
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// Close releases the tab. Idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.logger.Debug("Closing browser session.")
		s.cancel()
	})
}

// Navigate loads the URL and waits for the initial document content.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating.", zap.String("url", url))

	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()

	navTimeout := s.cfg.NavigationTimeout
	if navTimeout <= 0 {
		navTimeout = 60 * time.Second
	}
	navCtx, navCancel := context.WithTimeout(opCtx, navTimeout)
	defer navCancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		if navCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("navigation timed out after %s: %w", navTimeout, err)
		}
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// LocateByLabel implements semantic locating: form controls associated with a
// label (for-attribute or nesting), aria-label, or placeholder whose text
// contains the query, compared case- and diacritic-insensitively.
func (s *Session) LocateByLabel(text string) ElementSet {
	expr := fmt.Sprintf(`(() => {
		const norm = v => (v || '').toLowerCase().normalize('NFD').replace(/[\u0300-\u036f]/g, '');
		const q = norm(%s);
		const seen = new Set();
		const out = [];
		const add = el => { if (el && !seen.has(el)) { seen.add(el); out.push(el); } };
		for (const l of document.querySelectorAll('label')) {
			if (!norm(l.textContent).includes(q)) continue;
			if (l.htmlFor) add(document.getElementById(l.htmlFor));
			add(l.querySelector('input, textarea, select'));
		}
		for (const el of document.querySelectorAll('[aria-label], [placeholder]')) {
			if (norm(el.getAttribute('aria-label')).includes(q) ||
				norm(el.getAttribute('placeholder')).includes(q)) {
				add(el);
			}
		}
		for (const el of document.querySelectorAll('button, a[role="button"], input[type="submit"], input[type="button"]')) {
			if (norm(el.textContent).includes(q) || norm(el.value).includes(q)) add(el);
		}
		return out;
	})()`, jsString(text))

	return &elementSet{s: s, expr: expr, desc: "label=" + text}
}

// LocateBySelector implements structural locating by CSS selector.
func (s *Session) LocateBySelector(selector string) ElementSet {
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%s))`, jsString(selector))
	return &elementSet{s: s, expr: expr, desc: selector}
}

// WaitForFunction polls the JS expression at the given interval until it
// evaluates truthy or the timeout elapses. This is deliberately a plain poll
// loop rather than a CDP-native wait so the semantics stay portable across
// automation backends.
func (s *Session) WaitForFunction(ctx context.Context, js string, interval, timeout time.Duration) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()
	waitCtx, waitCancel := context.WithTimeout(opCtx, timeout)
	defer waitCancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	probe := fmt.Sprintf("!!(%s)", js)
	for {
		var ok bool
		if err := chromedp.Run(waitCtx, chromedp.Evaluate(probe, &ok)); err != nil {
			if waitCtx.Err() != nil {
				return waitCtx.Err()
			}
			// A failing probe (e.g. mid-navigation) is not fatal; try again
			// on the next tick.
			s.logger.Debug("Wait predicate evaluation failed.", zap.Error(err))
		} else if ok {
			return nil
		}

		select {
		case <-waitCtx.Done():
			return waitCtx.Err()
		case <-ticker.C:
		}
	}
}

// WaitForResponse blocks until a response arrives for a request accepted by
// match, or the timeout elapses. Requests are matched when they are sent and
// their responses are correlated by CDP request id.
func (s *Session) WaitForResponse(ctx context.Context, match func(method, url string) bool, timeout time.Duration) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()
	waitCtx, waitCancel := context.WithTimeout(opCtx, timeout)
	defer waitCancel()

	done := make(chan struct{})
	var once sync.Once
	var pending sync.Map

	chromedp.ListenTarget(waitCtx, func(ev any) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			if match(e.Request.Method, e.Request.URL) {
				pending.Store(e.RequestID, struct{}{})
			}
		case *network.EventResponseReceived:
			if _, ok := pending.Load(e.RequestID); ok {
				once.Do(func() { close(done) })
			}
		}
	})

	if err := chromedp.Run(waitCtx, network.Enable()); err != nil {
		return fmt.Errorf("failed to enable network events: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-waitCtx.Done():
		return waitCtx.Err()
	}
}

// EvaluateScript runs a JS expression in the page.
func (s *Session) EvaluateScript(ctx context.Context, js string, out any) error {
	opCtx, opCancel := CombineContext(s.ctx, ctx)
	defer opCancel()
	return chromedp.Run(opCtx, chromedp.Evaluate(js, out))
}

// jsString embeds a Go string as a JS string literal.
func jsString(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}
