package authcore

import (
	"context"
	"time"

	"github.com/veritane/authcore/credential"
)

// UserRecord is the full account record exchanged with [UserProvider]. It
// carries credential material and must never be returned to an end caller;
// Engine methods hand out [SafeUser] instead.
type UserRecord struct {
	UserID        string
	Username      string
	Email         string
	Credential    credential.Credential
	Security      SecurityState
	Profile       Profile
	IsActive      bool
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   time.Time
}

// Profile holds the non-security account fields the engine reads but never
// interprets.
type Profile struct {
	DisplayName string
}

// SafeUser is the sanitized view returned by login operations. No hash,
// salt, or key material crosses this boundary.
type SafeUser struct {
	UserID        string
	Username      string
	Email         string
	DisplayName   string
	IsActive      bool
	EmailVerified bool
	CreatedAt     time.Time
	LastLoginAt   time.Time
}

// Sanitized strips credential and security internals from a record.
func (u UserRecord) Sanitized() SafeUser {
	return SafeUser{
		UserID:        u.UserID,
		Username:      u.Username,
		Email:         u.Email,
		DisplayName:   u.Profile.DisplayName,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}

// LoginResult is returned by [Engine.Login] and [Engine.VerifyOTP].
type LoginResult struct {
	User SafeUser
}

// CreateUserInput is the input for [UserProvider.CreateUser]. The engine
// fills every field, including the initial security state.
type CreateUserInput struct {
	UserID     string
	Username   string
	Email      string
	Credential credential.Credential
	Profile    Profile
}

// UserProvider is the user-record store contract the embedding application
// implements. Lookup methods receive identifiers already lowercased by the
// engine and must match case-insensitively; they return [ErrUserNotFound]
// when no account matches.
//
// UpdateSecurityState and RecordLogin must each apply atomically at the
// store layer. The engine additionally serializes the surrounding
// read-modify-write per user, so two concurrent failed attempts never lose
// an increment.
type UserProvider interface {
	FindByEmail(ctx context.Context, email string) (UserRecord, error)
	FindByUsername(ctx context.Context, username string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	UpdateSecurityState(ctx context.Context, userID string, state SecurityState) error

	// RecordLogin atomically resets the security state and stamps the login
	// time on a successful authentication.
	RecordLogin(ctx context.Context, userID string, state SecurityState, at time.Time) error

	// SetActive flips the account activity flag. Administrative surface.
	SetActive(ctx context.Context, userID string, active bool) error
}

// Notifier is the external dispatch collaborator used by
// [Engine.RequestOTP]. Its success or failure reflects delivery, not
// eventual validation.
type Notifier interface {
	Send(ctx context.Context, identifier, code string) error
}

// NoOpNotifier discards codes. Useful in tests and in deployments where
// dispatch happens out of band.
type NoOpNotifier struct{}

// Send implements [Notifier].
func (NoOpNotifier) Send(context.Context, string, string) error { return nil }
