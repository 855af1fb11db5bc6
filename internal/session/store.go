package session

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"

	"shopfront/internal/api"
	"shopfront/internal/domain"
)

// State is the session lifecycle: Anonymous -> Authenticating ->
// Authenticated -> Anonymous.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// ErrNotAuthenticated is returned by operations that need a session.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Store holds the authentication token and the resolved user identity.
// The user is non-nil only while the token has been validated by the
// backend within this process lifetime. No other component mutates
// session state; observers subscribe for change notification.
type Store struct {
	client *api.Client
	creds  *Credentials
	logger *log.Logger

	mu      sync.Mutex
	state   State
	user    *domain.User
	lastErr error
	subs    map[int]func()
	nextSub int
}

// New wires a Store to the API client and registers the 401 hook: any
// unauthorized response from the backend destroys the session.
func New(client *api.Client, creds *Credentials, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Store{
		client: client,
		creds:  creds,
		logger: logger,
		subs:   make(map[int]func()),
	}
	client.SetUnauthorizedHook(s.Invalidate)
	return s
}

// Register creates a new account. It does not log the account in.
func (s *Store) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	payload := map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	}
	var user domain.User
	if err := s.client.Do(ctx, http.MethodPost, "/auth/signup", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a token, persists it, then resolves
// the current user. A token that cannot resolve a user is treated as
// invalid and discarded, not retried.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.User, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := s.client.PostForm(ctx, "/auth/login", form, &tok); err != nil {
		s.setError(err)
		return nil, err
	}
	if tok.AccessToken == "" {
		err := errors.New("session: login response missing access_token")
		s.setError(err)
		return nil, err
	}

	if err := s.creds.Set(tok.AccessToken); err != nil {
		s.setError(err)
		return nil, err
	}
	s.setState(StateAuthenticating, nil)

	user, err := s.resolveUser(ctx)
	if err != nil {
		s.logger.Printf("session: discarding token, user resolution failed: %v", err)
		if clearErr := s.creds.Clear(); clearErr != nil {
			s.logger.Printf("session: clear token: %v", clearErr)
		}
		s.setAnonymous(err)
		return nil, err
	}

	s.setAuthenticated(user)
	s.logger.Printf("session: authenticated user=%s role=%s", user.ID, user.Role)
	return user, nil
}

// Logout notifies the server best-effort and unconditionally clears
// local credentials. A network error must never leave a stale token.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.client.Do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		s.logger.Printf("session: logout notification failed: %v", err)
	}
	if err := s.creds.Clear(); err != nil {
		s.setAnonymous(nil)
		return err
	}
	s.setAnonymous(nil)
	return nil
}

// Restore resolves a persisted token from a prior process into a live
// session. It must run before any cart operation. Failures never
// escape: an unresolvable token is discarded and the session stays
// anonymous.
func (s *Store) Restore(ctx context.Context) {
	if s.creds.Token() == "" {
		return
	}
	s.setState(StateAuthenticating, nil)
	user, err := s.resolveUser(ctx)
	if err != nil {
		s.logger.Printf("session: persisted token rejected, clearing: %v", err)
		if clearErr := s.creds.Clear(); clearErr != nil {
			s.logger.Printf("session: clear token: %v", clearErr)
		}
		s.setAnonymous(err)
		return
	}
	s.setAuthenticated(user)
	s.logger.Printf("session: restored user=%s role=%s", user.ID, user.Role)
}

// Invalidate drops the token and user without telling the server.
// Wired as the API client's 401 hook.
func (s *Store) Invalidate() {
	if err := s.creds.Clear(); err != nil {
		s.logger.Printf("session: clear token: %v", err)
	}
	s.setAnonymous(nil)
}

// Current returns a copy of the session user, nil when anonymous.
func (s *Store) Current() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether a validated user is bound to the
// session.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// IsAdmin reports whether the session user may call admin endpoints.
func (s *Store) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.user.IsAdmin()
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the most recent operation failure, for passive
// observers.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Subscribe registers fn to run after every state change. The returned
// function cancels the subscription.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) resolveUser(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := s.client.Do(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) setAuthenticated(user *domain.User) {
	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.lastErr = nil
	s.mu.Unlock()
	s.notify()
}

func (s *Store) setAnonymous(err error) {
	s.mu.Lock()
	s.state = StateAnonymous
	s.user = nil
	s.lastErr = err
	s.mu.Unlock()
	s.notify()
}

func (s *Store) setState(state State, err error) {
	s.mu.Lock()
	s.state = state
	s.lastErr = err
	s.mu.Unlock()
	s.notify()
}

func (s *Store) setError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	s.notify()
}

// notify runs subscribers outside the lock so they may read the store.
func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}
