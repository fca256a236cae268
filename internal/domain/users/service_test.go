package users_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/storage/memory"
	"github.com/beemailley/final-project-backend-bm/internal/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) *users.Service {
	t.Helper()
	return users.NewService(memory.NewStore().Accounts(), auth.NewHasher(bcrypt.MinCost), nil, zerolog.Nop())
}

func register(t *testing.T, svc *users.Service, username, email string) *users.Account {
	t.Helper()
	acct, err := svc.Register(context.Background(), users.RegisterParams{
		Username:     username,
		Password:     "secret1",
		EmailAddress: email,
	})
	require.NoError(t, err)
	return acct
}

func TestRegister_IssuesHashAndToken(t *testing.T) {
	svc := newService(t)

	acct := register(t, svc, "alice", "Alice@Example.com")

	require.NotEmpty(t, acct.ID)
	require.Equal(t, "alice", acct.Username)
	require.Equal(t, "alice@example.com", acct.EmailAddress)
	require.Len(t, acct.AccessToken, auth.AccessTokenBytes*2)
	require.NotEqual(t, "secret1", acct.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte("secret1")))
	require.WithinDuration(t, time.Now(), acct.MemberSince, time.Minute)
}

func TestRegister_EmailIsOptional(t *testing.T) {
	svc := newService(t)
	register(t, svc, "alice", "")
	register(t, svc, "bob", "")
}

func TestRegister_Conflicts(t *testing.T) {
	svc := newService(t)
	register(t, svc, "alice", "alice@example.com")

	_, err := svc.Register(context.Background(), users.RegisterParams{
		Username: "alice", Password: "secret1", EmailAddress: "other@example.com",
	})
	require.ErrorIs(t, err, users.ErrUsernameTaken)

	_, err = svc.Register(context.Background(), users.RegisterParams{
		Username: "alice2", Password: "secret1", EmailAddress: "ALICE@example.com",
	})
	require.ErrorIs(t, err, users.ErrEmailTaken)
}

func TestRegister_Validation(t *testing.T) {
	svc := newService(t)

	tests := []struct {
		name   string
		params users.RegisterParams
		field  string
	}{
		{"short username", users.RegisterParams{Username: "al", Password: "secret1"}, "username"},
		{"long username", users.RegisterParams{Username: "abcdefghijklmnopqrstu", Password: "secret1"}, "username"},
		{"bad username chars", users.RegisterParams{Username: "al ice", Password: "secret1"}, "username"},
		{"missing password", users.RegisterParams{Username: "alice"}, "password"},
		{"short password", users.RegisterParams{Username: "alice", Password: "abc"}, "password"},
		{"bad email", users.RegisterParams{Username: "alice", Password: "secret1", EmailAddress: "nope"}, "emailAddress"},
		{"multibyte password over 72 bytes", users.RegisterParams{Username: "alice", Password: strings.Repeat("é", 40)}, "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.params)
			require.ErrorIs(t, err, users.ErrValidation)

			var verrs validation.Errors
			require.ErrorAs(t, err, &verrs)
			require.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestRegister_PasswordAtByteLimit(t *testing.T) {
	svc := newService(t)

	// 36 two-byte runes is exactly 72 bytes.
	acct, err := svc.Register(context.Background(), users.RegisterParams{
		Username: "alice",
		Password: strings.Repeat("é", 36),
	})
	require.NoError(t, err)
	require.NotEmpty(t, acct.AccessToken)
}

func TestRegister_StripsMarkupFromProfile(t *testing.T) {
	svc := newService(t)

	acct, err := svc.Register(context.Background(), users.RegisterParams{
		Username: "alice",
		Password: "secret1",
		Profile:  users.Profile{FirstName: "<b>Alice</b>", HomeCountry: " Sweden "},
	})
	require.NoError(t, err)
	require.Equal(t, "Alice", acct.FirstName)
	require.Equal(t, "Sweden", acct.HomeCountry)
}

func TestLogin(t *testing.T) {
	svc := newService(t)
	registered := register(t, svc, "alice", "")

	t.Run("correct password returns the registration token", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			acct, err := svc.Login(context.Background(), "alice", "secret1")
			require.NoError(t, err)
			require.Equal(t, registered.AccessToken, acct.AccessToken)
			require.Equal(t, registered.ID, acct.ID)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "alice", "secret2")
		require.ErrorIs(t, err, users.ErrInvalidCredentials)
	})

	t.Run("unknown user fails the same way", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "mallory", "secret1")
		require.ErrorIs(t, err, users.ErrInvalidCredentials)
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "alice", "")
		require.ErrorIs(t, err, users.ErrInvalidCredentials)
	})
}

func TestVerifyToken(t *testing.T) {
	svc := newService(t)
	registered := register(t, svc, "alice", "")

	acct, err := svc.VerifyToken(context.Background(), registered.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", acct.Username)

	_, err = svc.VerifyToken(context.Background(), "never-issued")
	require.ErrorIs(t, err, users.ErrUnauthenticated)

	_, err = svc.VerifyToken(context.Background(), "")
	require.ErrorIs(t, err, users.ErrUnauthenticated)
}

func TestList_EmptyIsNotNil(t *testing.T) {
	svc := newService(t)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestUpdateProfile(t *testing.T) {
	svc := newService(t)
	alice := register(t, svc, "alice", "alice@example.com")
	bob := register(t, svc, "bob", "bob@example.com")
	alicePrincipal := auth.Principal{ID: alice.ID, Username: alice.Username}

	t.Run("merge on present", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), alicePrincipal, "alice", users.ProfilePatch{
			FirstName: "Alice", HomeCountry: "Sweden",
		})
		require.NoError(t, err)

		updated, err := svc.UpdateProfile(context.Background(), alicePrincipal, "alice", users.ProfilePatch{
			LastName: "Liddell", FirstName: "",
		})
		require.NoError(t, err)
		require.Equal(t, "Alice", updated.FirstName)
		require.Equal(t, "Liddell", updated.LastName)
		require.Equal(t, "Sweden", updated.HomeCountry)
		require.Equal(t, "alice@example.com", updated.EmailAddress)
	})

	t.Run("other account looks like not found", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), alicePrincipal, bob.Username, users.ProfilePatch{FirstName: "x"})
		require.ErrorIs(t, err, users.ErrNotFound)

		_, err = svc.UpdateProfile(context.Background(), alicePrincipal, "ghost", users.ProfilePatch{FirstName: "x"})
		require.ErrorIs(t, err, users.ErrNotFound)
	})

	t.Run("email conflict", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), alicePrincipal, "alice", users.ProfilePatch{EmailAddress: "bob@example.com"})
		require.ErrorIs(t, err, users.ErrEmailTaken)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.UpdateProfile(context.Background(), alicePrincipal, "alice", users.ProfilePatch{EmailAddress: "bad"})
		require.ErrorIs(t, err, users.ErrValidation)
	})
}

func TestProfilePatch_IsEmpty(t *testing.T) {
	require.True(t, users.ProfilePatch{}.IsEmpty())
	b := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	require.False(t, users.ProfilePatch{Birthday: &b}.IsEmpty())
}
