// File: internal/browser/interface.go
// Description: The abstract page-automation capability consumed by the login
// flow. Any browser-automation backend satisfying these two interfaces is
// substitutable; the chromedp implementation lives in this package, the flow
// logic never touches chromedp directly.
package browser

import (
	"context"
	"time"
)

// Page is one open page (tab) in a live browser session.
type Page interface {
	// Navigate loads the URL and returns once the initial document content is
	// ready. It deliberately does not wait for network idle; some portal
	// variants never settle.
	Navigate(ctx context.Context, url string) error

	// LocateByLabel returns the set of controls whose accessible name
	// contains the given text (case- and diacritic-insensitive): associated
	// label text, aria-label, or placeholder for form fields, visible text
	// for buttons.
	LocateByLabel(text string) ElementSet

	// LocateBySelector returns the set of elements matching a CSS selector.
	LocateBySelector(selector string) ElementSet

	// WaitForFunction polls the JS expression until it evaluates truthy or the
	// timeout elapses.
	WaitForFunction(ctx context.Context, js string, interval, timeout time.Duration) error

	// WaitForResponse blocks until a network response whose originating
	// request matches arrives, or the timeout elapses.
	WaitForResponse(ctx context.Context, match func(method, url string) bool, timeout time.Duration) error

	// EvaluateScript runs a JS expression; when out is non-nil the result is
	// unmarshalled into it.
	EvaluateScript(ctx context.Context, js string, out any) error
}

// ElementSet is a lazy handle on the matches of one locator. Operations
// address the i-th match at the time of the call, so a set stays usable
// across re-renders of dynamic markup.
type ElementSet interface {
	Count(ctx context.Context) (int, error)
	IsVisible(ctx context.Context, i int) (bool, error)
	Click(ctx context.Context, i int, timeout time.Duration) error
	Fill(ctx context.Context, i int, value string) error
	// Attribute returns the named attribute of the i-th match. The boolean
	// reports whether the element exists and carries the attribute. For
	// "value" the live property is consulted before the static attribute.
	Attribute(ctx context.Context, i int, name string) (string, bool, error)
}
