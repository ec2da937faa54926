package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/five82/shelf/internal/session"
	"github.com/five82/shelf/internal/state"
	"github.com/five82/shelf/internal/workflow"
)

// StartRefresher launches a background goroutine that reloads the book list
// at a fixed cadence. A non-positive interval disables it. It returns
// immediately.
func StartRefresher(ctx context.Context, books *workflow.Books, sess *session.Session, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			refresh(ctx, books, sess, log)
		}
	}()
}

// refresh reloads the list only on top of a settled success. Failures stay
// on screen until the user retries, and a signed-out session is left alone
// so the refresher never navigates on its own.
func refresh(ctx context.Context, books *workflow.Books, sess *session.Session, log *zap.Logger) bool {
	snap := books.Snapshot()
	if snap.Pending || snap.Result.Status() != state.StatusSuccess {
		return false
	}
	if !sess.SignedIn() {
		return false
	}
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := books.Do(ctx, sess, workflow.List{}); err != nil {
		log.Warn("background refresh failed", zap.Error(err))
		return true
	}
	log.Debug("background refresh", zap.Int("books", books.Snapshot().Result.Len()))
	return true
}
