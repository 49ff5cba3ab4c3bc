// File: internal/authflow/flow.go
// Description: The multi-step login state machine. Steps run strictly in
// order, each against page state mutated by the previous one; every wait is
// bounded by its own deadline. No retry happens here -- the fetch
// orchestrator is the sole retry authority.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/browser"
	"github.com/artgru/eduvulcan-for-ha/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Credential carries the portal login. Ephemeral: held only for the duration
// of one fetch, never persisted, never logged.
type Credential struct {
	Login    string
	Password string
}

// userInfoPathFragment identifies the verification call some portal layouts
// issue after the username step.
const userInfoPathFragment = "/Account/QueryUserInfo"

// Flow drives the portal's interactive login UI from navigation to the raw
// token payload.
type Flow struct {
	loginURL string
	cfg      config.FlowConfig
	res      *Resolver
	log      *zap.Logger
}

// New creates a Flow for the given login URL.
func New(loginURL string, cfg config.FlowConfig, logger *zap.Logger) *Flow {
	log := logger.Named("authflow")
	return &Flow{
		loginURL: loginURL,
		cfg:      cfg,
		res:      NewResolver(log),
		log:      log,
	}
}

// Run executes the login state machine on the given page and returns the raw
// token payload text read from the page. Fatal conditions surface as
// StepError values wrapping the step's failure kind.
func (f *Flow) Run(ctx context.Context, page browser.Page, cred Credential) (string, error) {
	// 1. Start: initial document content is enough; full network idle never
	// arrives on some variants.
	if err := page.Navigate(ctx, f.loginURL); err != nil {
		return "", stepErr("navigate", err)
	}

	// 2. Overlay: best-effort, always transitions onward.
	dismissOverlay(ctx, page, f.res, f.log)

	// 3-4. Login field: wait for visibility, then fill.
	if err := f.awaitAnyVisible(ctx, page, IntentLoginField, f.cfg.LoginFieldWait); err != nil {
		return "", stepErr("await_login_field", fmt.Errorf("%w: %w", ErrLoginFieldNotFound, err))
	}
	if err := f.res.Resolve(ctx, page, IntentLoginField, Fill(cred.Login)); err != nil {
		return "", stepErr("fill_login", ErrLoginFieldNotFound)
	}
	f.log.Info("Login field filled.")

	// 5. Optional advance: two-page layouts have a "next" control, single
	// page layouts do not. Neither the missing control nor a slow
	// verification call is fatal.
	f.optionalAdvance(ctx, page)

	// 6-7. Password field: wait, then fill.
	if err := f.awaitAnyVisible(ctx, page, IntentPasswordField, f.cfg.PasswordWait); err != nil {
		return "", stepErr("await_password_field", fmt.Errorf("%w: %w", ErrPasswordFieldNotFound, err))
	}
	if err := f.res.Resolve(ctx, page, IntentPasswordField, Fill(cred.Password)); err != nil {
		return "", stepErr("fill_password", ErrPasswordFieldNotFound)
	}
	f.log.Info("Password field filled.")

	// 8. CAPTCHA gate: the one deliberately long, human-in-the-loop wait.
	if err := f.captchaGate(ctx, page); err != nil {
		return "", stepErr("captcha", err)
	}

	// 9. Submit.
	if err := f.res.Resolve(ctx, page, IntentSubmitButton, Click(f.cfg.ActionTimeout)); err != nil {
		return "", stepErr("submit", ErrSubmitButtonNotFound)
	}
	f.log.Info("Login submitted.")

	// 10-11. Token payload: wait for the container to carry a non-empty
	// value, then read it.
	raw, err := f.awaitTokenPayload(ctx, page)
	if err != nil {
		return "", stepErr("await_token_payload", err)
	}
	f.log.Info("Token payload captured.")
	return raw, nil
}

// awaitAnyVisible suspends until any of the intent's wait selectors has a
// visible match.
func (f *Flow) awaitAnyVisible(ctx context.Context, page browser.Page, intent Intent, timeout time.Duration) error {
	selectors := waitSelectors(intent)
	err := Until(ctx, f.cfg.PollInterval, timeout, func(waitCtx context.Context) bool {
		return anyVisible(waitCtx, page, selectors)
	})
	if err != nil {
		return fmt.Errorf("timed out waiting for selectors: %s: %w", strings.Join(selectors, ", "), err)
	}
	return nil
}

// optionalAdvance clicks the "next" control when present and gives the
// follow-up verification call a bounded chance to settle. Both halves are
// logged but non-fatal; single-page layouts have neither.
func (f *Flow) optionalAdvance(ctx context.Context, page browser.Page) {
	err := f.res.Resolve(ctx, page, IntentNextButton, Click(f.cfg.ActionTimeout))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			f.log.Debug("No next control present; assuming single-page layout.")
		} else {
			f.log.Warn("Next control click failed; proceeding.", zap.Error(err))
		}
		return
	}
	f.log.Debug("Next control clicked.")

	err = page.WaitForResponse(ctx, func(method, url string) bool {
		return method == "POST" && strings.Contains(url, userInfoPathFragment)
	}, f.cfg.UserInfoWait)
	if err != nil {
		f.log.Info("User info verification did not finish within timeout.", zap.Error(err))
	}
}

// captchaGate probes the captcha indicators; when one is visible, automated
// progress suspends until the human operator has supplied a response (or the
// indicator is gone), capped by the configured wait.
func (f *Flow) captchaGate(ctx context.Context, page browser.Page) error {
	selectors := locators(IntentCaptchaIndicator).selectors
	if !anyVisible(ctx, page, selectors) {
		return nil
	}

	f.log.Warn("CAPTCHA detected. Please solve it manually in the browser.")

	selectorsJSON, err := json.Marshal(selectors)
	if err != nil {
		return fmt.Errorf("failed to encode captcha selectors: %w", err)
	}

	// Solved means: every still-rendered, visible captcha element carries a
	// non-empty value. Elements that disappeared count as solved.
	predicate := fmt.Sprintf(`((selectors) => {
		const elements = selectors
			.map((selector) => document.querySelector(selector))
			.filter(Boolean);
		if (elements.length === 0) return true;
		for (const el of elements) {
			const style = window.getComputedStyle(el);
			const visible = style && style.display !== 'none' && style.visibility !== 'hidden';
			if (visible && el.offsetParent !== null) {
				const value = (el.value || '').trim();
				if (!value) return false;
			}
		}
		return true;
	})(%s)`, selectorsJSON)

	if err := page.WaitForFunction(ctx, predicate, f.cfg.PollInterval, f.cfg.CaptchaWait); err != nil {
		return fmt.Errorf("captcha was not solved in time: %w", err)
	}
	f.log.Info("CAPTCHA cleared.")
	return nil
}

// awaitTokenPayload waits for the token payload container to appear with a
// non-empty value and returns that value.
func (f *Flow) awaitTokenPayload(ctx context.Context, page browser.Page) (string, error) {
	selectors := waitSelectors(IntentTokenPayload)

	var raw string
	err := Until(ctx, f.cfg.PollInterval, f.cfg.TokenPayloadWait, func(waitCtx context.Context) bool {
		for _, sel := range selectors {
			es := page.LocateBySelector(sel)
			value, ok, err := es.Attribute(waitCtx, 0, "value")
			if err != nil || !ok || value == "" {
				continue
			}
			raw = value
			return true
		}
		return false
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenPayloadTimeout, err)
	}
	return raw, nil
}
