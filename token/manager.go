package token

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/guireq/libreria-java-books/instrumentation"
	"github.com/guireq/libreria-java-books/internal/config"
	"github.com/guireq/libreria-java-books/oauthmodel"
	"github.com/guireq/libreria-java-books/pkce"
	"github.com/guireq/libreria-java-books/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// errLoggedOut reports a token set that arrived after a Logout and was dropped.
var errLoggedOut = fmt.Errorf("%w: logged out while the call was in flight", ErrAuthenticationRequired)

// Proxy performs the code exchange and refresh on the client's behalf.
// *tokenproxy.Client implements it.
type Proxy interface {
	Exchange(ctx context.Context, code, codeVerifier, redirectURI string) (*oauthmodel.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*oauthmodel.TokenResponse, error)
}

// Manager holds the single logged-in identity of a client. It is safe for
// concurrent use; at most one refresh is in flight at a time.
type Manager struct {
	cfg       config.ClientConfig
	proxy     Proxy
	durable   storage.Store // access_token, refresh_token, token_expiry
	session   storage.Store // code_verifier
	navigator Navigator
	metrics   *instrumentation.Metrics
	random    io.Reader
	nowFunc   func() time.Time

	mu      sync.RWMutex
	tokens  TokenSet
	pending bool

	// bumped by Logout; a proxy result from an older generation is dropped
	generation uint64

	// serialises memory+storage writes so storage never lags an older set
	persistMu sync.Mutex
	refreshes singleflight.Group
}

type ManagerOption func(*Manager)

func WithNavigator(n Navigator) ManagerOption {
	return func(m *Manager) {
		m.navigator = n
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithMetrics(metrics *instrumentation.Metrics) ManagerOption {
	return func(m *Manager) {
		m.metrics = metrics
	}
}

// WithRandom replaces crypto/rand as the verifier source.
func WithRandom(r io.Reader) ManagerOption {
	return func(m *Manager) {
		m.random = r
	}
}

func New(cfg config.ClientConfig, proxy Proxy, durable, session storage.Store, options ...ManagerOption) *Manager {
	m := &Manager{
		cfg:     cfg,
		proxy:   proxy,
		durable: durable,
		session: session,
	}

	for _, opt := range options {
		opt(m)
	}

	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	if m.random == nil {
		m.random = rand.Reader
	}
	if m.metrics == nil {
		m.metrics = instrumentation.NewNoop()
	}
	return m
}

// Load reads the persisted token set into memory. It is called once at
// start; afterwards the in-memory copy wins.
func (m *Manager) Load(ctx context.Context) error {
	var ts TokenSet
	var err error

	if ts.AccessToken, err = m.getOptional(ctx, m.durable, storage.KeyAccessToken); err != nil {
		return err
	}
	if ts.RefreshToken, err = m.getOptional(ctx, m.durable, storage.KeyRefreshToken); err != nil {
		return err
	}
	expiry, err := m.getOptional(ctx, m.durable, storage.KeyTokenExpiry)
	if err != nil {
		return err
	}
	if ts.AccessToken != "" {
		ms, err := strconv.ParseInt(expiry, 10, 64)
		if err != nil {
			log.Warn().Str("key", storage.KeyTokenExpiry).Msg("stored tokens have no usable expiry, ignoring them")
			ts = TokenSet{}
		} else {
			ts.ExpiresAt = time.UnixMilli(ms)
		}
	}
	verifier, err := m.getOptional(ctx, m.session, storage.KeyCodeVerifier)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.tokens = ts
	m.pending = verifier != ""
	m.mu.Unlock()
	return nil
}

func (m *Manager) getOptional(ctx context.Context, s storage.Store, key string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("[token Load] read %s: %w", key, err)
	}
	return v, nil
}

// State reports where the manager is in the login lifecycle. A stale token
// set held during a new login reports as LoggedIn or Expired.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	switch {
	case m.tokens.empty() && m.pending:
		return LoginPending
	case m.tokens.empty():
		return LoggedOut
	case m.tokens.Expired(m.nowFunc()):
		return Expired
	default:
		return LoggedIn
	}
}

// Tokens returns a copy of the held token set.
func (m *Manager) Tokens() TokenSet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens
}

// IsAuthenticated is true when an access token is held and now is strictly
// before its expiry.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.tokens.empty() && !m.tokens.Expired(m.nowFunc())
}

// AuthorizationURL builds the authorization endpoint URL for challenge.
func (m *Manager) AuthorizationURL(challenge string) (string, error) {
	params := oauthmodel.AuthorizationParameters{
		AuthServer:          m.cfg.GetAuthorizationServer(),
		ClientID:            m.cfg.GetClientID(),
		RedirectURI:         m.cfg.GetRedirectURI(),
		Scopes:              m.cfg.GetScopes(),
		State:               m.cfg.GetState(),
		CodeChallenge:       challenge,
		CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
	}
	authURL, err := params.URL()
	if err != nil {
		return "", fmt.Errorf("[token AuthorizationURL] %w", err)
	}
	return authURL, nil
}

// BeginLogin generates a fresh PKCE pair, stores the verifier in the session
// store, replacing any earlier one, and returns the authorization URL.
func (m *Manager) BeginLogin(ctx context.Context) (string, error) {
	pair, err := pkce.GenerateFrom(m.random)
	if err != nil {
		return "", fmt.Errorf("[token BeginLogin] %w", err)
	}

	authURL, err := m.AuthorizationURL(pair.Challenge)
	if err != nil {
		return "", err
	}

	if err := m.session.Set(ctx, storage.KeyCodeVerifier, pair.Verifier); err != nil {
		return "", fmt.Errorf("[token BeginLogin] store code verifier: %w", err)
	}

	m.mu.Lock()
	m.pending = true
	m.mu.Unlock()

	m.metrics.RecordLoginStarted(ctx)
	log.Debug().Int("verifier_len", len(pair.Verifier)).Msg("login initiated")
	return authURL, nil
}

// InitiateLogin starts a login and hands the authorization URL to the navigator.
func (m *Manager) InitiateLogin(ctx context.Context) error {
	if m.navigator == nil {
		return errors.New("[token InitiateLogin] no navigator configured")
	}
	authURL, err := m.BeginLogin(ctx)
	if err != nil {
		return err
	}
	if err := m.navigator.Navigate(ctx, authURL); err != nil {
		return fmt.Errorf("[token InitiateLogin] navigate: %w", err)
	}
	return nil
}

// CompleteLogin validates the callback, exchanges the code with the pending
// verifier and stores the resulting token set. A failed exchange leaves any
// previously held token set untouched.
func (m *Manager) CompleteLogin(ctx context.Context, code, state string) error {
	if state != m.cfg.GetState() {
		return fmt.Errorf("[token CompleteLogin] %w", ErrProtocolViolation)
	}
	_, gen := m.snapshot()

	verifier, err := m.session.Get(ctx, storage.KeyCodeVerifier)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && verifier == "") {
		return fmt.Errorf("[token CompleteLogin] %w", ErrMissingPendingLogin)
	}
	if err != nil {
		return fmt.Errorf("[token CompleteLogin] read code verifier: %w", err)
	}

	resp, err := m.proxy.Exchange(ctx, code, verifier, m.cfg.GetRedirectURI())
	if err != nil {
		if !errors.Is(err, ErrExchangeFailed) {
			err = fmt.Errorf("%w: %w", ErrExchangeFailed, err)
		}
		return fmt.Errorf("[token CompleteLogin] %w", err)
	}

	if !m.store(ctx, resp, gen) {
		return fmt.Errorf("[token CompleteLogin] %w", errLoggedOut)
	}

	if err := m.session.Delete(ctx, storage.KeyCodeVerifier); err != nil {
		log.Warn().Err(err).Msg("failed to delete code verifier")
	}
	m.mu.Lock()
	m.pending = false
	m.mu.Unlock()
	return nil
}

// HandleCallback is CompleteLogin with failures logged and reported as false.
func (m *Manager) HandleCallback(ctx context.Context, code, state string) bool {
	err := m.CompleteLogin(ctx, code, state)
	m.metrics.RecordCallback(ctx, err == nil)
	if err != nil {
		log.Err(err).Msg("login callback failed")
		return false
	}
	log.Info().Msg("login completed")
	return true
}

// RefreshAccessToken trades the held refresh token for a new token set. It
// returns false without a network call when no refresh token is held, and
// leaves the current token set in place on failure.
func (m *Manager) RefreshAccessToken(ctx context.Context) bool {
	err := m.refresh(ctx, "")
	if err != nil {
		log.Err(err).Msg("token refresh failed")
		return false
	}
	return true
}

// RefreshIfStale refreshes after the server rejected the access token
// rejected. When the held token has already moved on from it, by a refresh
// another caller ran, the newer token is kept and no refresh is sent.
func (m *Manager) RefreshIfStale(ctx context.Context, rejected string) bool {
	err := m.refresh(ctx, rejected)
	if err != nil {
		log.Err(err).Msg("token refresh failed")
		return false
	}
	return true
}

// GetValidAccessToken returns the current access token, refreshing it once
// when it has expired. If that refresh fails the manager logs out and
// ErrAuthenticationRequired is returned.
func (m *Manager) GetValidAccessToken(ctx context.Context) (string, error) {
	tokens := m.Tokens()
	if tokens.empty() {
		return "", fmt.Errorf("[token GetValidAccessToken] %w", ErrAuthenticationRequired)
	}
	if !tokens.Expired(m.nowFunc()) {
		return tokens.AccessToken, nil
	}

	if err := m.refresh(ctx, tokens.AccessToken); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, errLoggedOut) {
			return "", fmt.Errorf("[token GetValidAccessToken] %w", err)
		}
		log.Warn().Err(err).Msg("refresh of expired token failed, logging out")
		m.forceLogout(ctx)
		return "", fmt.Errorf("[token GetValidAccessToken] %w: %w", ErrAuthenticationRequired, err)
	}

	tokens = m.Tokens()
	if tokens.empty() {
		return "", fmt.Errorf("[token GetValidAccessToken] %w", ErrAuthenticationRequired)
	}
	return tokens.AccessToken, nil
}

// Logout clears the token set and deletes every persisted key. Calling it
// while logged out is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	m.tokens = TokenSet{}
	m.pending = false
	m.generation++
	m.mu.Unlock()

	var errs []error
	for _, key := range []string{storage.KeyAccessToken, storage.KeyRefreshToken, storage.KeyTokenExpiry} {
		if err := m.durable.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.session.Delete(ctx, storage.KeyCodeVerifier); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("[token Logout] %w", err)
	}
	return nil
}

func (m *Manager) forceLogout(ctx context.Context) {
	m.metrics.RecordForcedLogout(ctx)
	if err := m.Logout(context.WithoutCancel(ctx)); err != nil {
		log.Err(err).Msg("forced logout could not clear storage")
	}
}

// refresh runs at most one refresh at a time; concurrent callers share its
// result. When stale is set the refresh is skipped if the held access token
// has already moved on from it.
func (m *Manager) refresh(ctx context.Context, stale string) error {
	ch := m.refreshes.DoChan(refreshKey, func() (any, error) {
		return nil, m.doRefresh(context.WithoutCancel(ctx), stale)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) doRefresh(ctx context.Context, stale string) error {
	tokens, gen := m.snapshot()
	if stale != "" && tokens.AccessToken != stale && !tokens.empty() && !tokens.Expired(m.nowFunc()) {
		return nil
	}
	if tokens.RefreshToken == "" {
		return fmt.Errorf("[token refresh] %w", ErrNoRefreshToken)
	}

	resp, err := m.proxy.Refresh(ctx, tokens.RefreshToken)
	m.metrics.RecordRefresh(ctx, err == nil)
	if err != nil {
		if !errors.Is(err, ErrRefreshFailed) {
			err = fmt.Errorf("%w: %w", ErrRefreshFailed, err)
		}
		return fmt.Errorf("[token refresh] %w", err)
	}

	if resp.RefreshToken == nil {
		log.Warn().Msg("refresh response carried no refresh token, the next expiry will require a new login")
	}
	if !m.store(ctx, resp, gen) {
		return fmt.Errorf("[token refresh] %w", errLoggedOut)
	}
	return nil
}

func (m *Manager) snapshot() (TokenSet, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens, m.generation
}

// store replaces the token set from resp. The response is authoritative: an
// absent refresh token clears the held one. Persistence failures are logged;
// the in-memory set stays valid for this process. It returns false and keeps
// nothing when a Logout happened after gen was read.
func (m *Manager) store(ctx context.Context, resp *oauthmodel.TokenResponse, gen uint64) bool {
	ts := TokenSet{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.GetRefreshToken(),
		ExpiresAt:    resp.ExpiresAt(m.nowFunc()),
	}

	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		log.Warn().Msg("dropping tokens that arrived after logout")
		return false
	}
	m.tokens = ts
	m.mu.Unlock()

	if err := m.persist(ctx, ts); err != nil {
		log.Err(err).Msg("failed to persist tokens")
	}
	return true
}

func (m *Manager) persist(ctx context.Context, ts TokenSet) error {
	if err := m.durable.Set(ctx, storage.KeyAccessToken, ts.AccessToken); err != nil {
		return fmt.Errorf("[token persist] %w", err)
	}
	var err error
	if ts.RefreshToken != "" {
		err = m.durable.Set(ctx, storage.KeyRefreshToken, ts.RefreshToken)
	} else {
		err = m.durable.Delete(ctx, storage.KeyRefreshToken)
	}
	if err != nil {
		return fmt.Errorf("[token persist] %w", err)
	}
	expiry := strconv.FormatInt(ts.ExpiresAt.UnixMilli(), 10)
	if err := m.durable.Set(ctx, storage.KeyTokenExpiry, expiry); err != nil {
		return fmt.Errorf("[token persist] %w", err)
	}
	return nil
}
