package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/domain/ids"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
)

type AccountRepository struct {
	mu         *sync.RWMutex
	byID       map[string]*users.Account
	byUsername map[string]string
	byEmail    map[string]string
	byToken    map[string]string
}

func (r *AccountRepository) Create(ctx context.Context, account users.Account) (*users.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byUsername[account.Username]; ok {
		return nil, users.ErrUsernameTaken
	}
	if account.EmailAddress != "" {
		if _, ok := r.byEmail[account.EmailAddress]; ok {
			return nil, users.ErrEmailTaken
		}
	}

	if account.ID == "" {
		account.ID = ids.NewUUID()
	}
	stored := copyAccount(account)
	r.byID[stored.ID] = stored
	r.byUsername[stored.Username] = stored.ID
	if stored.EmailAddress != "" {
		r.byEmail[stored.EmailAddress] = stored.ID
	}
	r.byToken[stored.AccessToken] = stored.ID
	return copyAccount(*stored), nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*users.Account, error) {
	return r.lookup(ctx, r.byUsername, username)
}

func (r *AccountRepository) GetByAccessToken(ctx context.Context, token string) (*users.Account, error) {
	return r.lookup(ctx, r.byToken, token)
}

func (r *AccountRepository) lookup(ctx context.Context, index map[string]string, key string) (*users.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := index[key]
	if !ok {
		return nil, users.ErrNotFound
	}
	return copyAccount(*r.byID[id]), nil
}

func (r *AccountRepository) List(ctx context.Context) ([]users.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]users.Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, *copyAccount(*a))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MemberSince.Equal(out[j].MemberSince) {
			return out[i].Username < out[j].Username
		}
		return out[i].MemberSince.Before(out[j].MemberSince)
	})
	return out, nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, patch users.ProfilePatch) (*users.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	if patch.EmailAddress != "" && patch.EmailAddress != existing.EmailAddress {
		if owner, taken := r.byEmail[patch.EmailAddress]; taken && owner != id {
			return nil, users.ErrEmailTaken
		}
		delete(r.byEmail, existing.EmailAddress)
		r.byEmail[patch.EmailAddress] = id
	}
	patch.Apply(existing)
	existing.UpdatedAt = time.Now().UTC()
	return copyAccount(*existing), nil
}

func copyAccount(a users.Account) *users.Account {
	if a.Birthday != nil {
		b := *a.Birthday
		a.Birthday = &b
	}
	return &a
}
