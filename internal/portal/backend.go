// Package portal holds the client side of the HR dashboard: the contracts
// with the auth-and-data backend and the types shared by the session manager
// and the attendance widget.
package portal

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/hr-portal/internal/attendance"
	"github.com/frahmantamala/hr-portal/internal/role"
)

// User is the identity the backend reports for a session.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	AppMetadata  map[string]any `json:"app_metadata"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u User) Identity() role.Identity {
	return role.Identity{
		UserID:       u.ID,
		UserMetadata: u.UserMetadata,
		AppMetadata:  u.AppMetadata,
	}
}

// Session is an installed token pair and the user it belongs to.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past (or within skew of) expiry.
func (s *Session) Expired(now time.Time, skew time.Duration) bool {
	return s == nil || !now.Add(skew).Before(s.ExpiresAt)
}

// LoginPayload is what the login endpoint returns. The session is not
// installed until SetSession is called with its tokens.
type LoginPayload struct {
	AccessToken  string
	RefreshToken string
	User         User
	Role         string
	RedirectPath string
}

type AuthEventType string

const (
	EventInitialSession AuthEventType = "INITIAL_SESSION"
	EventSignedIn       AuthEventType = "SIGNED_IN"
	EventSignedOut      AuthEventType = "SIGNED_OUT"
	EventTokenRefreshed AuthEventType = "TOKEN_REFRESHED"
)

// AuthEvent is an auth-state change. Session is nil once signed out.
type AuthEvent struct {
	Type    AuthEventType
	Session *Session
}

type AuthListener func(AuthEvent)

// AuthBackend is the session surface of the backend client.
type AuthBackend interface {
	Login(ctx context.Context, email, password string) (*LoginPayload, error)
	SetSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	// GetSession returns the current session, or nil when there is none.
	GetSession(ctx context.Context) (*Session, error)
	// OnAuthStateChange registers l and returns a function that removes it.
	OnAuthStateChange(l AuthListener) func()
	SignOut(ctx context.Context) error
}

// RoleTable is the remote role lookup.
type RoleTable interface {
	// LookupRole returns ErrRoleTableMissing when the table does not exist
	// and ErrRoleNotFound when the user has no row.
	LookupRole(ctx context.Context, userID string) (string, error)
}

// AttendanceTable is the remote attendance collection of the current user.
type AttendanceTable interface {
	// SelectToday returns the record for date, or nil when there is none.
	SelectToday(ctx context.Context, userID, date string) (*attendance.Record, error)
	// Insert returns ErrUniqueViolation when a record for the day exists.
	Insert(ctx context.Context, record *attendance.Record) (*attendance.Record, error)
	UpdateCheckOut(ctx context.Context, recordID int64, at time.Time) (*attendance.Record, error)
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrRoleTableMissing   = errors.New("role table does not exist")
	ErrRoleNotFound       = errors.New("no role assigned")
	ErrUniqueViolation    = errors.New("record already exists")
	ErrNoSession          = errors.New("not signed in")
)
