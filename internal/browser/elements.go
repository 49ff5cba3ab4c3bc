// File: internal/browser/elements.go
package browser

import (
	"context"
	"fmt"
	"time"
)

// elementSet implements ElementSet by re-evaluating its locator expression in
// the page on every operation. Probing and acting are combined in single JS
// round trips because holding element references across operations is
// unreliable against dynamic markup.
type elementSet struct {
	s    *Session
	expr string // JS expression yielding an array of elements
	desc string
}

var _ ElementSet = (*elementSet)(nil)

func (e *elementSet) run(ctx context.Context, js string, out any, timeout time.Duration) error {
	opCtx, cancel := CombineContext(e.s.ctx, ctx)
	defer cancel()
	if timeout > 0 {
		var tcancel context.CancelFunc
		opCtx, tcancel = context.WithTimeout(opCtx, timeout)
		defer tcancel()
	}
	if err := e.s.EvaluateScript(opCtx, js, out); err != nil {
		return fmt.Errorf("element operation failed for %q: %w", e.desc, err)
	}
	return nil
}

func (e *elementSet) Count(ctx context.Context) (int, error) {
	var n int
	err := e.run(ctx, fmt.Sprintf(`(%s).length`, e.expr), &n, 0)
	return n, err
}

func (e *elementSet) IsVisible(ctx context.Context, i int) (bool, error) {
	js := fmt.Sprintf(`(() => {
		const el = (%s)[%d];
		if (!el) return false;
		const st = window.getComputedStyle(el);
		return st.display !== 'none' && st.visibility !== 'hidden' && el.getClientRects().length > 0;
	})()`, e.expr, i)

	var visible bool
	err := e.run(ctx, js, &visible, 0)
	return visible, err
}

func (e *elementSet) Click(ctx context.Context, i int, timeout time.Duration) error {
	js := fmt.Sprintf(`(() => {
		const el = (%s)[%d];
		if (!el) return false;
		el.scrollIntoView({ block: 'center' });
		el.click();
		return true;
	})()`, e.expr, i)

	var clicked bool
	if err := e.run(ctx, js, &clicked, timeout); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("element %d of %q vanished before click", i, e.desc)
	}
	return nil
}

func (e *elementSet) Fill(ctx context.Context, i int, value string) error {
	// Values are written through the native setter and followed by input and
	// change events, so framework-bound fields observe the edit.
	js := fmt.Sprintf(`(() => {
		const el = (%s)[%d];
		if (!el) return false;
		el.focus();
		const proto = el instanceof HTMLTextAreaElement
			? HTMLTextAreaElement.prototype
			: HTMLInputElement.prototype;
		const desc = Object.getOwnPropertyDescriptor(proto, 'value');
		if (desc && desc.set) { desc.set.call(el, %s); } else { el.value = %s; }
		el.dispatchEvent(new Event('input', { bubbles: true }));
		el.dispatchEvent(new Event('change', { bubbles: true }));
		return true;
	})()`, e.expr, i, jsString(value), jsString(value))

	var filled bool
	if err := e.run(ctx, js, &filled, 0); err != nil {
		return err
	}
	if !filled {
		return fmt.Errorf("element %d of %q vanished before fill", i, e.desc)
	}
	return nil
}

func (e *elementSet) Attribute(ctx context.Context, i int, name string) (string, bool, error) {
	js := fmt.Sprintf(`(() => {
		const el = (%s)[%d];
		if (!el) return { ok: false, value: '' };
		let v = null;
		if (%s === 'value' && 'value' in el) v = el.value;
		if (v === null || v === undefined || v === '') {
			const a = el.getAttribute(%s);
			if (a !== null) v = a;
		}
		if (v === null || v === undefined) return { ok: false, value: '' };
		return { ok: true, value: String(v) };
	})()`, e.expr, i, jsString(name), jsString(name))

	var res struct {
		OK    bool   `json:"ok"`
		Value string `json:"value"`
	}
	if err := e.run(ctx, js, &res, 0); err != nil {
		return "", false, err
	}
	return res.Value, res.OK, nil
}
