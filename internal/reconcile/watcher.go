package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const defaultPollInterval = 5 * time.Second

// VerificationWatcher waits for the user's email to become verified. It
// listens for recheck signals (the popup's completion message) but never
// trusts them: every signal and every poll tick goes back to the server.
// Polling alone is sufficient when no signal ever arrives.
type VerificationWatcher struct {
	api      AuthAPI
	interval time.Duration
	logger   *slog.Logger
}

func NewVerificationWatcher(api AuthAPI, interval time.Duration, logger *slog.Logger) *VerificationWatcher {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationWatcher{api: api, interval: interval, logger: logger}
}

// Run blocks until the email is verified, the session dies, or ctx is done.
// recheck may be nil; a nil channel simply never fires and the ticker carries
// the watch on its own.
func (w *VerificationWatcher) Run(ctx context.Context, recheck <-chan struct{}) (bool, error) {
	verified, err := w.probe(ctx)
	if verified {
		return true, nil
	}
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) || errors.Is(err, context.Canceled) {
			return false, err
		}
		// Transient failure on the first probe: the ticker takes over.
		w.logger.DebugContext(ctx, "verification probe failed, retrying", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-recheck:
			w.logger.DebugContext(ctx, "verification recheck signal received")
		case <-ticker.C:
		}
		verified, err := w.probe(ctx)
		if err != nil {
			if errors.Is(err, ErrUnauthenticated) || errors.Is(err, context.Canceled) {
				return false, err
			}
			// Transient failure: keep polling.
			w.logger.DebugContext(ctx, "verification probe failed, retrying", "error", err)
			continue
		}
		if verified {
			return true, nil
		}
	}
}

func (w *VerificationWatcher) probe(ctx context.Context) (bool, error) {
	return w.api.CheckVerification(ctx)
}
