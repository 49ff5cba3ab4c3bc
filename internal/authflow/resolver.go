// File: internal/authflow/resolver.go
package authflow

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/browser"
)

// Action is the operation performed on a resolved element. Resolution and
// action are one step because probing without acting is unreliable against
// dynamic markup: the element a probe saw may be gone by the time a separate
// action runs.
type Action func(ctx context.Context, es browser.ElementSet, i int) error

// Fill writes a value into the element.
func Fill(value string) Action {
	return func(ctx context.Context, es browser.ElementSet, i int) error {
		return es.Fill(ctx, i, value)
	}
}

// Click clicks the element, bounded by timeout.
func Click(timeout time.Duration) Action {
	return func(ctx context.Context, es browser.ElementSet, i int) error {
		return es.Click(ctx, i, timeout)
	}
}

// Resolver applies the fallback policy shared by every UI-touching step:
// semantic locators in order, then structural locators in order; within each
// locator, the first visible match that accepts the action wins.
type Resolver struct {
	log *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{log: logger.Named("resolver")}
}

// Resolve locates the intent's target and performs act on it. ErrNotFound is
// returned once every locator has been tried without success; whether that is
// fatal is the caller's call.
func (r *Resolver) Resolve(ctx context.Context, page browser.Page, intent Intent, act Action) error {
	l := locators(intent)

	for _, label := range l.labels {
		if r.tryLocator(ctx, page.LocateByLabel(label), act) {
			r.log.Debug("Intent resolved by label.",
				zap.Stringer("intent", intent), zap.String("label", label))
			return nil
		}
	}

	for _, sel := range l.selectors {
		if r.tryLocator(ctx, page.LocateBySelector(sel), act) {
			r.log.Debug("Intent resolved by selector.",
				zap.Stringer("intent", intent), zap.String("selector", sel))
			return nil
		}
	}

	return ErrNotFound
}

// tryLocator attempts act on the first visible match of one locator.
// Any per-element failure moves on to the next match; any locator-level
// failure (page mid-navigation, evaluation error) skips the locator.
func (r *Resolver) tryLocator(ctx context.Context, es browser.ElementSet, act Action) bool {
	count, err := es.Count(ctx)
	if err != nil || count == 0 {
		return false
	}

	for i := 0; i < count; i++ {
		visible, err := es.IsVisible(ctx, i)
		if err != nil || !visible {
			continue
		}
		if err := act(ctx, es, i); err != nil {
			r.log.Debug("Action on candidate failed; trying next.", zap.Int("index", i), zap.Error(err))
			continue
		}
		return true
	}
	return false
}

// anyVisible reports whether any of the selectors currently has a visible
// match. Probe errors count as not visible.
func anyVisible(ctx context.Context, page browser.Page, selectors []string) bool {
	for _, sel := range selectors {
		es := page.LocateBySelector(sel)
		count, err := es.Count(ctx)
		if err != nil || count == 0 {
			continue
		}
		if visible, err := es.IsVisible(ctx, 0); err == nil && visible {
			return true
		}
	}
	return false
}
