package hrapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/frahmantamala/hr-portal/internal/auth"
	"github.com/frahmantamala/hr-portal/internal/portal"
	"github.com/frahmantamala/hr-portal/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

// Login calls the custom login endpoint. The returned tokens are not
// installed; pass them to SetSession.
func (c *Client) Login(ctx context.Context, email, password string) (*portal.LoginPayload, error) {
	var result auth.LoginResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   auth.LoginDTO{Email: email, Password: password},
		token:  c.apiKey,
		headers: map[string]string{
			"apikey": c.apiKey,
		},
	}, &result)
	if err != nil {
		if apiErr, ok := asAPIError(err); ok && apiErr.Code == "INVALID_CREDENTIALS" {
			return nil, portal.ErrInvalidCredentials
		}
		return nil, err
	}

	return &portal.LoginPayload{
		AccessToken:  result.Session.AccessToken,
		RefreshToken: result.Session.RefreshToken,
		User:         fromSessionUser(result.User),
		Role:         result.Role,
		RedirectPath: result.RedirectPath,
	}, nil
}

// SetSession verifies the access token against the server, persists the
// session and emits SIGNED_IN.
func (c *Client) SetSession(ctx context.Context, accessToken, refreshToken string) (*portal.Session, error) {
	session, err := c.buildSession(ctx, accessToken, refreshToken)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session = session
	c.loaded = true
	err = c.persistLocked(session)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.logger.Info("session installed", "user_id", session.User.ID)
	c.emit(portal.AuthEvent{Type: portal.EventSignedIn, Session: session})
	return session, nil
}

// GetSession returns the installed session, refreshing the token pair when
// the access token has expired. A failed refresh clears the session.
func (c *Client) GetSession(ctx context.Context) (*portal.Session, error) {
	c.mu.Lock()
	if !c.loaded {
		s, err := c.loadLocked()
		if err != nil {
			c.mu.Unlock()
			return nil, err
		}
		c.session = s
		c.loaded = true
	}
	session := c.session
	c.mu.Unlock()

	if session == nil || !session.Expired(c.now(), refreshSkew) {
		return session, nil
	}

	refreshed, err := c.refresh(ctx, session.RefreshToken)
	if err != nil {
		c.logger.Warn("session refresh failed, signing out locally", "error", err)
		c.clear()
		c.emit(portal.AuthEvent{Type: portal.EventSignedOut})
		return nil, nil
	}

	c.mu.Lock()
	c.session = refreshed
	err = c.persistLocked(refreshed)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	c.emit(portal.AuthEvent{Type: portal.EventTokenRefreshed, Session: refreshed})
	return refreshed, nil
}

// OnAuthStateChange registers l. Listeners run on the goroutine that caused
// the change, after the client's lock is released.
func (c *Client) OnAuthStateChange(l portal.AuthListener) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// SignOut tells the server and always clears the local session.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	var remoteErr error
	if session != nil {
		remoteErr = c.do(ctx, request{
			method: http.MethodPost,
			path:   "/auth/logout",
			token:  session.AccessToken,
		}, nil)
		if remoteErr != nil {
			c.logger.Warn("remote sign-out failed", "error", remoteErr)
		}
	}

	c.clear()
	c.emit(portal.AuthEvent{Type: portal.EventSignedOut})

	if apiErr, ok := asAPIError(remoteErr); ok && apiErr.StatusCode == http.StatusUnauthorized {
		return nil
	}
	return remoteErr
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (*portal.Session, error) {
	if refreshToken == "" {
		return nil, errors.New("no refresh token")
	}
	var result auth.LoginResult
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/refresh",
		body:   auth.RefreshTokenDTO{RefreshToken: refreshToken},
	}, &result)
	if err != nil {
		return nil, err
	}
	return c.buildSession(ctx, result.Session.AccessToken, result.Session.RefreshToken)
}

// buildSession reads the identity claims from the access token and the
// profile from the server. The profile call is what verifies the token.
func (c *Client) buildSession(ctx context.Context, accessToken, refreshToken string) (*portal.Session, error) {
	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return nil, fmt.Errorf("malformed access token: %w", err)
	}

	var profile user.ProfileResponse
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/users/me",
		token:  accessToken,
	}, &profile)
	if err != nil {
		return nil, fmt.Errorf("verify session: %w", err)
	}

	u := portal.User{
		ID:          claims.UserID,
		Email:       claims.Email,
		AppMetadata: map[string]any{},
	}
	if claims.AppMetadata.Role != "" {
		u.AppMetadata["role"] = claims.AppMetadata.Role
	}
	if profile.User != nil {
		u.UserMetadata = map[string]any{
			"name":       profile.Name,
			"department": profile.Department,
		}
		if u.ID == "" {
			u.ID = strconv.FormatInt(profile.ID, 10)
		}
	}

	session := &portal.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    auth.TokenTypeBearer,
		User:         u,
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	} else {
		session.ExpiresAt = c.now().Add(time.Hour)
	}
	return session, nil
}

func (c *Client) loadLocked() (*portal.Session, error) {
	raw, ok, err := c.store.Get(KeySession)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var s portal.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		c.logger.Warn("discarding unreadable stored session", "error", err)
		_ = c.store.Delete(KeySession)
		return nil, nil
	}
	return &s, nil
}

func (c *Client) persistLocked(s *portal.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := c.store.Set(KeySession, string(data)); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (c *Client) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.loaded = true
	if err := c.store.Delete(KeySession); err != nil {
		c.logger.Warn("failed to delete stored session", "error", err)
	}
}

func (c *Client) emit(event portal.AuthEvent) {
	c.mu.Lock()
	listeners := make([]portal.AuthListener, 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(event)
	}
}

func fromSessionUser(u auth.SessionUser) portal.User {
	return portal.User{
		ID:           u.ID,
		Email:        u.Email,
		AppMetadata:  u.AppMetadata,
		UserMetadata: u.UserMetadata,
	}
}
