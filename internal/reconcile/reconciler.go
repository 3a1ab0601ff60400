package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Result reports one reconciliation pass. Changed is false when the server
// snapshot matched the cache, which makes repeated passes idempotent.
type Result struct {
	State   State
	Changed bool
}

// Reconciler overwrites the local cache with the server's snapshot whenever
// the two disagree. Concurrent callers share a single in-flight whoami call.
type Reconciler struct {
	api    AuthAPI
	store  Store
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

func NewReconciler(api AuthAPI, store Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{api: api, store: store, logger: logger, now: time.Now}
}

// Reconcile fetches the authoritative snapshot and replaces the cache with
// it. On a definitive 401 the cache is cleared; transient errors leave the
// cache untouched so a flaky network never logs the user out locally.
// Concurrent callers coalesce onto one in-flight call; that call is detached
// from any single caller's context so one caller cancelling does not fail the
// rest, while each caller still honors its own deadline.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	ch := r.group.DoChan("check", func() (any, error) {
		return r.reconcileOnce(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		return res.Val.(Result), nil
	}
}

func (r *Reconciler) reconcileOnce(ctx context.Context) (Result, error) {
	prev, err := r.store.Load()
	if err != nil {
		prev = State{Status: StatusUnknown}
	}

	snap, err := r.api.Check(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			cleared := State{Status: StatusUnauthenticated, SyncedAt: r.now()}
			if clearErr := r.store.Clear(); clearErr != nil {
				r.logger.WarnContext(ctx, "failed to clear cached auth state", "error", clearErr)
			}
			if saveErr := r.store.Save(cleared); saveErr != nil {
				return Result{}, saveErr
			}
			return Result{State: cleared, Changed: prev.Status != StatusUnauthenticated}, nil
		}
		return Result{}, err
	}

	next := State{
		Status:              StatusAuthenticated,
		UserID:              snap.UserID,
		Email:               snap.Email,
		Name:                snap.Name,
		EmailVerified:       snap.EmailVerified,
		OnboardingStep:      snap.OnboardingStep,
		OnboardingCompleted: snap.OnboardingCompleted,
		RedirectURL:         snap.RedirectURL,
		SyncedAt:            r.now(),
	}
	changed := !statesEquivalent(prev, next)
	if err := r.store.Save(next); err != nil {
		return Result{}, err
	}
	if changed {
		r.logger.DebugContext(ctx, "auth state reconciled",
			"user_id", next.UserID,
			"email_verified", next.EmailVerified,
			"onboarding_step", next.OnboardingStep,
		)
	}
	return Result{State: next, Changed: changed}, nil
}

// CanonicalPath is where the client should be after a reconciliation pass.
// Unauthenticated sessions go to the login page; everything else follows the
// server's redirect contract.
func (r *Reconciler) CanonicalPath(st State) string {
	if st.Status != StatusAuthenticated {
		return "/login"
	}
	if st.RedirectURL != "" {
		return st.RedirectURL
	}
	return "/dashboard"
}

// statesEquivalent ignores SyncedAt so a no-op refresh does not count as a
// change.
func statesEquivalent(a, b State) bool {
	return a.Status == b.Status &&
		a.UserID == b.UserID &&
		a.Email == b.Email &&
		a.Name == b.Name &&
		a.EmailVerified == b.EmailVerified &&
		a.OnboardingStep == b.OnboardingStep &&
		a.OnboardingCompleted == b.OnboardingCompleted &&
		a.RedirectURL == b.RedirectURL
}
