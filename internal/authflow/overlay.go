// File: internal/authflow/overlay.go
package authflow

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/browser"
)

// overlayCleanupScript is the last-resort sweep when no dismissal button
// matched: delete known banner roots outright and hide anything that smells
// like a cookie or RODO layer.
const overlayCleanupScript = `(() => {
	const ids = ['onetrust-banner-sdk', 'respect-privacy-wrapper', 'cookie', 'cookies', 'cookie-policy', 'rodo'];
	for (const id of ids) {
		const el = document.getElementById(id);
		if (el) el.remove();
	}
	const nodes = document.querySelectorAll(
		'[class*="cookie"], [class*="rodo"], [id*="cookie"], [id*="rodo"]'
	);
	for (const node of nodes) {
		if (node && node.style) node.style.display = 'none';
	}
	return true;
})()`

// dismissOverlay removes consent and cookie banners that would block
// interaction with the login controls. Strictly best-effort: the absence of
// any overlay is a success, and nothing here can fail the flow.
func dismissOverlay(ctx context.Context, page browser.Page, res *Resolver, log *zap.Logger) {
	err := res.Resolve(ctx, page, IntentOverlayDismiss, Click(0))
	if err == nil {
		log.Debug("Overlay dismissed via button.")
		return
	}
	if !errors.Is(err, ErrNotFound) {
		log.Debug("Overlay dismissal attempt failed.", zap.Error(err))
	}

	if err := page.EvaluateScript(ctx, overlayCleanupScript, nil); err != nil {
		log.Debug("Overlay cleanup script failed.", zap.Error(err))
	}
}
