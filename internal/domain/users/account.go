package users

import (
	"context"
	"errors"
	"time"
)

// Error types for account operations
var (
	ErrNotFound           = errors.New("account not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("email address is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrValidation         = errors.New("validation failed")
)

// Account is a registered member. PasswordHash and AccessToken never leave
// the service layer except on register and login.
type Account struct {
	ID           string
	Username     string
	EmailAddress string
	PasswordHash string
	AccessToken  string
	Profile
	MemberSince time.Time
	UpdatedAt   time.Time
}

// Profile holds the optional, member-editable fields of an account.
type Profile struct {
	FirstName   string
	LastName    string
	Gender      string
	Birthday    *time.Time
	Interests   string
	CurrentCity string
	HomeCountry string
	Languages   string
}

// ProfilePatch carries a partial profile update. Empty strings and nil
// pointers leave the stored value unchanged.
type ProfilePatch struct {
	FirstName    string
	LastName     string
	EmailAddress string
	Gender       string
	Birthday     *time.Time
	Interests    string
	CurrentCity  string
	HomeCountry  string
	Languages    string
}

// IsEmpty reports whether the patch would change nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == "" && p.LastName == "" && p.EmailAddress == "" &&
		p.Gender == "" && p.Birthday == nil && p.Interests == "" &&
		p.CurrentCity == "" && p.HomeCountry == "" && p.Languages == ""
}

// Apply merges non-empty patch fields over the account.
func (p ProfilePatch) Apply(a *Account) {
	if p.FirstName != "" {
		a.FirstName = p.FirstName
	}
	if p.LastName != "" {
		a.LastName = p.LastName
	}
	if p.EmailAddress != "" {
		a.EmailAddress = p.EmailAddress
	}
	if p.Gender != "" {
		a.Gender = p.Gender
	}
	if p.Birthday != nil {
		b := *p.Birthday
		a.Birthday = &b
	}
	if p.Interests != "" {
		a.Interests = p.Interests
	}
	if p.CurrentCity != "" {
		a.CurrentCity = p.CurrentCity
	}
	if p.HomeCountry != "" {
		a.HomeCountry = p.HomeCountry
	}
	if p.Languages != "" {
		a.Languages = p.Languages
	}
}

// Repository is the credential store. Implementations must enforce username,
// email and access token uniqueness atomically and report violations as
// ErrUsernameTaken or ErrEmailTaken.
type Repository interface {
	Create(ctx context.Context, account Account) (*Account, error)
	GetByUsername(ctx context.Context, username string) (*Account, error)
	GetByAccessToken(ctx context.Context, token string) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (*Account, error)
}
