package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/legendary216/DishDeck/internal/cache"
)

// ErrNoUser is returned when no authenticated user is available. It is the
// one non-recoverable condition in the sync paths.
var ErrNoUser = errors.New("no authenticated user")

// SignIn authenticates with email and password and persists the resulting
// session in the cache store so later runs can restore it.
func (s *Supabase) SignIn(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	return s.tokenRequest(ctx, "password", body)
}

// SignOut drops the session from memory and cache.
func (s *Supabase) SignOut() error {
	s.mu.Lock()
	s.session = nil
	s.userID = ""
	s.mu.Unlock()
	return s.cache.Clear(cache.KeySession)
}

// CurrentUser returns the id of the signed-in user, decoded from the access
// token's subject claim.
func (s *Supabase) CurrentUser() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.userID == "" {
		return "", ErrNoUser
	}
	return s.userID, nil
}

// authorize attaches the api key and bearer token, refreshing the access
// token first if it has expired.
func (s *Supabase) authorize(ctx context.Context, req *http.Request) error {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == nil {
		return ErrNoUser
	}
	if tokenExpired(session.AccessToken) {
		if err := s.refreshSession(ctx, session.RefreshToken); err != nil {
			return fmt.Errorf("failed to refresh session: %w", err)
		}
		s.mu.Lock()
		session = s.session
		s.mu.Unlock()
	}

	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Authorization", "Bearer "+session.AccessToken)
	return nil
}

func (s *Supabase) refreshSession(ctx context.Context, refreshToken string) error {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return fmt.Errorf("failed to marshal refresh request: %w", err)
	}
	return s.tokenRequest(ctx, "refresh_token", body)
}

// tokenRequest hits the auth token endpoint with the given grant and adopts
// the returned session.
func (s *Supabase) tokenRequest(ctx context.Context, grantType string, body []byte) error {
	endpoint := fmt.Sprintf("%s/auth/v1/token?grant_type=%s", s.baseURL, grantType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("apikey", s.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("auth error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	userID, err := subjectOf(session.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to read access token claims: %w", err)
	}

	s.mu.Lock()
	s.session = &session
	s.userID = userID
	s.mu.Unlock()

	if err := s.cache.WriteJSON(cache.KeySession, session); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// restoreSession loads a previously persisted session, if any. A corrupt or
// missing entry just leaves the client signed out.
func (s *Supabase) restoreSession() {
	var session Session
	ok, err := s.cache.ReadJSON(cache.KeySession, &session)
	if err != nil || !ok {
		return
	}
	userID, err := subjectOf(session.AccessToken)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.session = &session
	s.userID = userID
	s.mu.Unlock()
}

// subjectOf extracts the sub claim from a GoTrue access token. The token is
// not verified locally; the server rejects forgeries, we only need the id.
func subjectOf(accessToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return "", err
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", err
	}
	if sub == "" {
		return "", fmt.Errorf("access token has no subject claim")
	}
	return sub, nil
}

func tokenExpired(accessToken string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	// Refresh a little early so an in-flight request does not expire mid-way.
	return time.Until(exp.Time) < 30*time.Second
}
