package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/audit"
	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/sanitize"
	"github.com/beemailley/final-project-backend-bm/internal/validation"
	"github.com/rs/zerolog"
)

// Service is the authenticator and profile manager.
type Service struct {
	repo        Repository
	hasher      *auth.Hasher
	auditLogger *audit.Logger
	logger      zerolog.Logger
	now         func() time.Time
}

// NewService creates a new account service instance
func NewService(repo Repository, hasher *auth.Hasher, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	if hasher == nil {
		hasher = auth.NewHasher(auth.DefaultBcryptCost)
	}
	if auditLogger == nil {
		auditLogger = audit.Nop()
	}
	return &Service{
		repo:        repo,
		hasher:      hasher,
		auditLogger: auditLogger,
		logger:      logger.With().Str("component", "users").Logger(),
		now:         time.Now,
	}
}

// RegisterParams contains parameters for creating a new account
type RegisterParams struct {
	Username     string `json:"username" validate:"required,min=3,max=20,username"`
	Password     string `json:"password" validate:"required,min=6,max=72"`
	EmailAddress string `json:"emailAddress" validate:"omitempty,email,max=254"`
	Profile      Profile
}

type profileInput struct {
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	Gender      string `json:"gender" validate:"max=50"`
	Interests   string `json:"interests" validate:"max=500"`
	CurrentCity string `json:"currentCity" validate:"max=100"`
	HomeCountry string `json:"homeCountry" validate:"max=100"`
	Languages   string `json:"languages" validate:"max=200"`
}

// Register creates an account with a bcrypt password hash and a fresh access
// token. Duplicate usernames and email addresses are rejected by the store.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Account, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.EmailAddress = normalizeEmail(params.EmailAddress)
	params.Profile = cleanProfile(params.Profile)

	if err := validation.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := validation.Struct(profileInputOf(params.Profile)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if len(params.Password) > auth.MaxPasswordBytes {
		return nil, passwordTooLong()
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, passwordTooLong()
		}
		return nil, err
	}
	token, err := auth.GenerateAccessToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, Account{
		Username:     params.Username,
		EmailAddress: params.EmailAddress,
		PasswordHash: hash,
		AccessToken:  token,
		Profile:      params.Profile,
		MemberSince:  now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) || errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.auditLogger.LogSuccess(ctx, "account.register", created.Username, "account", created.ID, nil)
	s.logger.Info().Str("account_id", created.ID).Str("username", created.Username).Msg("account registered")
	return created, nil
}

// Login checks the password and returns the account with its stored access
// token. Unknown usernames and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, username, password string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	account, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = s.hasher.Compare("", password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return account, nil
}

// VerifyToken resolves an access token to its account.
func (s *Service) VerifyToken(ctx context.Context, token string) (*Account, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrUnauthenticated
	}
	account, err := s.repo.GetByAccessToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	if !auth.TokensEqual(account.AccessToken, token) {
		return nil, ErrUnauthenticated
	}
	return account, nil
}

func (s *Service) List(ctx context.Context) ([]Account, error) {
	accounts, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		accounts = []Account{}
	}
	return accounts, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByUsername(ctx, username)
}

// UpdateProfile applies patch to the caller's own account. Targeting any
// other account reports ErrNotFound.
func (s *Service) UpdateProfile(ctx context.Context, principal auth.Principal, username string, patch ProfilePatch) (*Account, error) {
	username = strings.TrimSpace(username)
	if err := auth.AuthorizeOwner(principal, username); err != nil {
		s.auditLogger.LogDenied(ctx, "account.update", principal.Username, "account", username, nil)
		return nil, ErrNotFound
	}

	patch = cleanPatch(patch)
	if patch.EmailAddress != "" {
		if err := validation.Struct(struct {
			EmailAddress string `json:"emailAddress" validate:"email,max=254"`
		}{patch.EmailAddress}); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}
	if err := validation.Struct(profileInputOf(Profile{
		FirstName:   patch.FirstName,
		LastName:    patch.LastName,
		Gender:      patch.Gender,
		Interests:   patch.Interests,
		CurrentCity: patch.CurrentCity,
		HomeCountry: patch.HomeCountry,
		Languages:   patch.Languages,
	})); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	updated, err := s.repo.UpdateProfile(ctx, principal.ID, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.auditLogger.LogSuccess(ctx, "account.update", principal.Username, "account", principal.ID, nil)
	return updated, nil
}

func passwordTooLong() error {
	return fmt.Errorf("%w: %w", ErrValidation, validation.Errors{{
		Field:   "password",
		Message: fmt.Sprintf("must be at most %d bytes", auth.MaxPasswordBytes),
	}})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cleanProfile(p Profile) Profile {
	p.FirstName = sanitize.Field(p.FirstName)
	p.LastName = sanitize.Field(p.LastName)
	p.Gender = sanitize.Field(p.Gender)
	p.Interests = sanitize.Field(p.Interests)
	p.CurrentCity = sanitize.Field(p.CurrentCity)
	p.HomeCountry = sanitize.Field(p.HomeCountry)
	p.Languages = sanitize.Field(p.Languages)
	return p
}

func cleanPatch(p ProfilePatch) ProfilePatch {
	p.FirstName = sanitize.Field(p.FirstName)
	p.LastName = sanitize.Field(p.LastName)
	p.EmailAddress = normalizeEmail(p.EmailAddress)
	p.Gender = sanitize.Field(p.Gender)
	p.Interests = sanitize.Field(p.Interests)
	p.CurrentCity = sanitize.Field(p.CurrentCity)
	p.HomeCountry = sanitize.Field(p.HomeCountry)
	p.Languages = sanitize.Field(p.Languages)
	return p
}

func profileInputOf(p Profile) profileInput {
	return profileInput{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Gender:      p.Gender,
		Interests:   p.Interests,
		CurrentCity: p.CurrentCity,
		HomeCountry: p.HomeCountry,
		Languages:   p.Languages,
	}
}
