package pcloud

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// SessionState describes where the session is in its auth lifecycle.
type SessionState int

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// LoginFunc performs a provider login and returns a fresh auth token.
type LoginFunc func(ctx context.Context) (string, error)

// Session owns the cached pCloud auth token. The token has no expiry of
// its own; the provider signals staleness through result codes, at which
// point the RPC layer calls Invalidate and forces a fresh login.
//
// Logins are single-flight: concurrent callers that find no cached token
// share one in-flight login instead of issuing duplicates against the
// single token slot.
type Session struct {
	login LoginFunc

	mu    sync.Mutex
	token string
	state SessionState

	group singleflight.Group
}

// NewSession returns an unauthenticated session that uses login to
// obtain tokens on demand.
func NewSession(login LoginFunc) *Session {
	return &Session{login: login}
}

// Token returns the cached token, performing a login first if the
// session is not authenticated.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.state == StateAuthenticated && s.token != "" {
		token := s.token
		s.mu.Unlock()
		return token, nil
	}
	s.mu.Unlock()

	// All concurrent callers share the same login attempt.
	v, err, _ := s.group.Do("login", func() (interface{}, error) {
		// A previous flight may have finished between the cache check
		// and this call.
		s.mu.Lock()
		if s.state == StateAuthenticated && s.token != "" {
			token := s.token
			s.mu.Unlock()
			return token, nil
		}
		s.mu.Unlock()

		s.setState(StateAuthenticating)
		token, err := s.login(ctx)
		if err != nil {
			s.setState(StateUnauthenticated)
			return nil, err
		}

		s.mu.Lock()
		s.token = token
		s.state = StateAuthenticated
		s.mu.Unlock()
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate discards the cached token, reverting the session to
// unauthenticated. Called by the RPC layer on an auth-failure result.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.state = StateUnauthenticated
}

// State returns the current lifecycle state, for logging.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
