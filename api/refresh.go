package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	apperrors "github.com/Eakan-Git/Bookworm/pkg/errors"
)

// refreshFunc performs the actual refresh call against the backend and
// returns the new access token.
type refreshFunc func(ctx context.Context) (string, error)

// refreshState is the single-flight state machine: idle or refreshing.
// Modeling it explicitly (rather than a boolean plus an ad hoc queue) keeps
// the single-flight guarantee testable on its own.
type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

type refreshResult struct {
	token string
	err   error
}

// refresher serializes access token refreshes. The first caller to find the
// machine idle becomes the leader and performs the refresh; callers arriving
// while it is in flight park on the waiter list and all observe the leader's
// result, woken in arrival order.
type refresher struct {
	mu      sync.Mutex
	state   refreshState
	waiters []chan refreshResult

	refresh   refreshFunc
	tokens    TokenStore
	onExpired func()
	logger    *slog.Logger
}

// Token returns a freshly refreshed access token, sharing an in-flight
// refresh when one exists. A waiter whose context expires gives up waiting;
// the refresh itself keeps running under the leader's context.
func (r *refresher) Token(ctx context.Context) (string, error) {
	r.mu.Lock()
	if r.state == stateRefreshing {
		ch := make(chan refreshResult, 1)
		r.waiters = append(r.waiters, ch)
		r.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, res.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	r.state = stateRefreshing
	r.mu.Unlock()

	token, err := r.refresh(ctx)
	res := r.settle(ctx, token, err)
	return res.token, res.err
}

// settle installs the refresh outcome, returns the machine to idle and
// wakes every waiter with the shared result.
func (r *refresher) settle(ctx context.Context, token string, err error) refreshResult {
	res := refreshResult{token: token, err: err}

	switch {
	case err != nil:
		refreshesTotal.WithLabelValues("failure").Inc()
		if isAuthRejection(err) {
			// The refresh credential itself is no longer accepted. The
			// session is over; everyone queued behind this refresh is told so.
			r.tokens.Clear()
			res = refreshResult{err: apperrors.SessionExpired()}
			r.logger.WarnContext(ctx, "token refresh rejected, session expired")
			if r.onExpired != nil {
				r.onExpired()
			}
		} else {
			r.logger.WarnContext(ctx, "token refresh failed",
				slog.String("error", err.Error()),
			)
		}
	default:
		refreshesTotal.WithLabelValues("success").Inc()
		if serr := r.tokens.SetAccessToken(token); serr != nil {
			res = refreshResult{err: serr}
		}
	}

	r.mu.Lock()
	r.state = stateIdle
	waiters := r.waiters
	r.waiters = nil
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- res
	}
	return res
}

// isAuthRejection reports whether the backend refused the refresh
// credential outright (401/403), as opposed to being unreachable or broken.
func isAuthRejection(err error) bool {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Status == http.StatusUnauthorized || appErr.Status == http.StatusForbidden
	}
	return false
}
