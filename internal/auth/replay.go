package auth

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/sforce/internal/client"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

// Refresher refreshes credentials.
type Refresher interface {
	RefreshToken(ctx context.Context) error
}

// ReplayOnExpiredSession returns dispatch middleware that detects the
// session-expiry error code under errorKey, refreshes the token and replays
// the call once. The replay result is returned as is, even when it fails on
// the same error again.
func ReplayOnExpiredSession(refresher Refresher, errorKey, code string, logger sforce.Logger) client.Middleware {
	return func(next client.DispatchFunc) client.DispatchFunc {
		return func(ctx context.Context, call *client.Call) (sforce.Payload, error) {
			payload, err := next(ctx, call)
			if call.Replay || !SessionExpired(payload, err, errorKey, code) {
				return payload, err
			}

			if logger != nil {
				logger.Warn("Session expired, fetching another token and replaying the request", map[string]interface{}{
					"resource": call.Resource,
					"method":   call.Method,
					"code":     code,
				})
			}

			refreshErr := refresher.RefreshToken(ctx)
			if refreshErr != nil {
				return nil, fmt.Errorf("refreshing expired session: %w", refreshErr)
			}

			replay := *call
			replay.Replay = true

			return next(ctx, &replay)
		}
	}
}

// SessionExpired reports whether a dispatch outcome carries code under
// errorKey, either in a successful payload or in an API error payload.
func SessionExpired(payload sforce.Payload, err error, errorKey, code string) bool {
	if err != nil {
		return sforce.HasErrorCode(err, errorKey, code)
	}

	got, ok := sforce.ErrorCode(payload, errorKey)

	return ok && got == code
}

// Authorize wraps session so every request carries the bearer token of
// manager.
func Authorize(session sforce.Session, manager TokenManager) sforce.Session {
	return &authorizedSession{
		next:        session,
		interceptor: sforce.AuthenticationInterceptor(manager.GetToken),
	}
}

type authorizedSession struct {
	next        sforce.Session
	interceptor sforce.RequestInterceptor
}

func (s *authorizedSession) Do(ctx context.Context, req *sforce.Request) (*sforce.Response, error) {
	err := s.interceptor(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sforce.ErrAuthentication, err)
	}

	return s.next.Do(ctx, req)
}
