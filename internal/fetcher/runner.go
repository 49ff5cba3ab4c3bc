// File: internal/fetcher/runner.go
package fetcher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/authflow"
	"github.com/artgru/eduvulcan-for-ha/internal/browser"
	"github.com/artgru/eduvulcan-for-ha/internal/token"
)

// BrowserRunner runs the login flow in a fresh browser tab per attempt, so
// one attempt's page state never leaks into the next.
type BrowserRunner struct {
	manager *browser.Manager
	flow    *authflow.Flow
	log     *zap.Logger
}

var _ LoginRunner = (*BrowserRunner)(nil)

// NewBrowserRunner creates a BrowserRunner.
func NewBrowserRunner(manager *browser.Manager, flow *authflow.Flow, logger *zap.Logger) *BrowserRunner {
	return &BrowserRunner{
		manager: manager,
		flow:    flow,
		log:     logger.Named("browser_runner"),
	}
}

// FetchToken opens a tab, drives the login flow, and extracts the token
// record from the captured payload.
func (r *BrowserRunner) FetchToken(ctx context.Context, cred authflow.Credential) (token.Record, error) {
	session, err := r.manager.NewSession(ctx)
	if err != nil {
		return token.Record{}, fmt.Errorf("failed to open browser session: %w", err)
	}
	defer session.Close()

	raw, err := r.flow.Run(ctx, session, cred)
	if err != nil {
		return token.Record{}, err
	}

	rec, err := token.Extract([]byte(raw))
	if err != nil {
		return token.Record{}, fmt.Errorf("captured payload unusable: %w", err)
	}
	return rec, nil
}
