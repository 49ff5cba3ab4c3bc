// File: internal/fetcher/fetcher.go
// Description: The fetch orchestrator. Serves from cache when it can, runs
// the browser login when it must, and owns the invalidate-and-retry policy.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/artgru/eduvulcan-for-ha/internal/authflow"
	"github.com/artgru/eduvulcan-for-ha/internal/token"
	"github.com/artgru/eduvulcan-for-ha/internal/tokencache"
)

// maxLoginAttempts bounds the browser login runs per GetToken call. A second
// attempt covers transient portal flakiness; anything persistent is a
// credential or markup problem retries cannot fix.
const maxLoginAttempts = 2

// FetchError reports that every login attempt failed. The last attempt's
// failure is the cause.
type FetchError struct {
	Cause error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("token fetch failed after %d attempts: %v", maxLoginAttempts, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// LoginRunner performs one full browser login and returns the extracted
// token record.
type LoginRunner interface {
	FetchToken(ctx context.Context, cred authflow.Credential) (token.Record, error)
}

// Fetcher answers "give me a valid token" by consulting the cache first and
// falling back to interactive login.
type Fetcher struct {
	cache  *tokencache.Cache
	runner LoginRunner
	log    *zap.Logger
	now    func() time.Time
}

// New creates a Fetcher.
func New(cache *tokencache.Cache, runner LoginRunner, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		cache:  cache,
		runner: runner,
		log:    logger.Named("fetcher"),
		now:    time.Now,
	}
}

// GetToken returns a valid token record, preferring the cache. A cached
// record that is broken rather than merely absent or stale is deleted before
// the login fallback runs. Each failed login attempt also invalidates the
// cache so no partial state survives into the next call.
func (f *Fetcher) GetToken(ctx context.Context, cred authflow.Credential) (token.Record, error) {
	rec, needsRewrite, err := f.cache.Load(f.now())
	switch {
	case err == nil:
		if needsRewrite {
			// Self-healed from an older cache format; persist the upgraded
			// record but never fail a valid hit over it.
			if saveErr := f.cache.Save(rec); saveErr != nil {
				f.log.Warn("Failed to rewrite upgraded token record.", zap.Error(saveErr))
			}
		}
		f.log.Info("Using cached token.", zap.String("tenant", rec.Tenant))
		return rec, nil
	case errors.Is(err, tokencache.ErrAbsent):
		f.log.Info("No cached token; performing login.")
	case errors.Is(err, tokencache.ErrStale):
		f.log.Info("Cached token expired; performing login.")
	default:
		f.log.Warn("Cached token unusable; deleting and performing login.", zap.Error(err))
		if invErr := f.cache.Invalidate(); invErr != nil {
			f.log.Warn("Failed to delete unusable token record.", zap.Error(invErr))
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		if attempt > 1 {
			f.log.Info("Retrying login.", zap.Int("attempt", attempt))
		}

		rec, err := f.runner.FetchToken(ctx, cred)
		if err == nil {
			if saveErr := f.cache.Save(rec); saveErr != nil {
				// The token itself is good; a persistence failure only costs
				// the next call a re-login.
				f.log.Warn("Failed to persist token record.", zap.Error(saveErr))
			}
			f.log.Info("Token acquired.", zap.String("tenant", rec.Tenant), zap.Int("attempt", attempt))
			return rec, nil
		}

		lastErr = err
		f.log.Error("Login attempt failed.", zap.Int("attempt", attempt), zap.Error(err))
		if invErr := f.cache.Invalidate(); invErr != nil {
			f.log.Warn("Failed to invalidate token record after failed attempt.", zap.Error(invErr))
		}

		if ctx.Err() != nil {
			break
		}
	}

	return token.Record{}, &FetchError{Cause: lastErr}
}
