// File: internal/authflow/wait.go
package authflow

import (
	"context"
	"time"
)

// Until suspends the caller until pred reports true or the timeout elapses,
// probing at a fixed interval. The predicate runs immediately once before the
// first sleep. On timeout the context's DeadlineExceeded error is returned.
//
// This primitive is deliberately independent of the automation library's
// native waits so the same flow logic ports across backends.
func Until(ctx context.Context, interval, timeout time.Duration, pred func(context.Context) bool) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if pred(waitCtx) {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return waitCtx.Err()
		case <-ticker.C:
		}
	}
}
