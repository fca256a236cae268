package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/domain/ids"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type AccountRepository struct {
	db      queryer
	timeout time.Duration
}

const accountColumns = `id, username, email_address, password_hash, access_token,
       first_name, last_name, gender, birthday, interests, current_city,
       home_country, languages, member_since, updated_at`

func (r *AccountRepository) Create(ctx context.Context, account users.Account) (*users.Account, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRow(ctx, `
INSERT INTO accounts (
  username, email_address, password_hash, access_token,
  first_name, last_name, gender, birthday, interests, current_city,
  home_country, languages, member_since, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
RETURNING `+accountColumns,
		account.Username,
		account.EmailAddress,
		account.PasswordHash,
		account.AccessToken,
		account.FirstName,
		account.LastName,
		account.Gender,
		dateParam(account.Birthday),
		account.Interests,
		account.CurrentCity,
		account.HomeCountry,
		account.Languages,
		account.MemberSince,
	)
	created, err := scanAccount(row)
	if err != nil {
		if mapped := accountConflict(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert account: %w", classify(err))
	}
	return created, nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*users.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

func (r *AccountRepository) GetByAccessToken(ctx context.Context, token string) (*users.Account, error) {
	return r.getOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE access_token = $1`, token)
}

func (r *AccountRepository) getOne(ctx context.Context, sql string, arg any) (*users.Account, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	account, err := scanAccount(r.db.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get account: %w", classify(err))
	}
	return account, nil
}

func (r *AccountRepository) List(ctx context.Context) ([]users.Account, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY member_since, username`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", classify(err))
	}
	defer rows.Close()

	out := []users.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", classify(err))
		}
		out = append(out, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", classify(err))
	}
	return out, nil
}

// UpdateProfile writes the non-empty patch fields in a single statement.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, patch users.ProfilePatch) (*users.Account, error) {
	uuid := ids.StringToUUID(id)
	if !uuid.Valid {
		return nil, users.ErrNotFound
	}
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRow(ctx, `
UPDATE accounts SET
  first_name    = COALESCE(NULLIF($2::text, ''), first_name),
  last_name     = COALESCE(NULLIF($3::text, ''), last_name),
  email_address = COALESCE(NULLIF($4::text, ''), email_address),
  gender        = COALESCE(NULLIF($5::text, ''), gender),
  birthday      = COALESCE($6::date, birthday),
  interests     = COALESCE(NULLIF($7::text, ''), interests),
  current_city  = COALESCE(NULLIF($8::text, ''), current_city),
  home_country  = COALESCE(NULLIF($9::text, ''), home_country),
  languages     = COALESCE(NULLIF($10::text, ''), languages),
  updated_at    = now()
WHERE id = $1
RETURNING `+accountColumns,
		uuid,
		patch.FirstName,
		patch.LastName,
		patch.EmailAddress,
		patch.Gender,
		dateParam(patch.Birthday),
		patch.Interests,
		patch.CurrentCity,
		patch.HomeCountry,
		patch.Languages,
	)
	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		if mapped := accountConflict(err); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("update account: %w", classify(err))
	}
	return updated, nil
}

func accountConflict(err error) error {
	switch uniqueConstraint(err) {
	case "accounts_username_key":
		return users.ErrUsernameTaken
	case "accounts_email_address_key":
		return users.ErrEmailTaken
	case "accounts_access_token_key":
		return fmt.Errorf("access token collision: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*users.Account, error) {
	var (
		id       pgtype.UUID
		birthday pgtype.Date
		a        users.Account
	)
	if err := row.Scan(
		&id,
		&a.Username,
		&a.EmailAddress,
		&a.PasswordHash,
		&a.AccessToken,
		&a.FirstName,
		&a.LastName,
		&a.Gender,
		&birthday,
		&a.Interests,
		&a.CurrentCity,
		&a.HomeCountry,
		&a.Languages,
		&a.MemberSince,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.ID = ids.UUIDToString(id)
	if birthday.Valid {
		b := birthday.Time
		a.Birthday = &b
	}
	a.MemberSince = a.MemberSince.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func dateParam(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}
