// Package memory is a process-local store for development and tests. Every
// mutation runs under one mutex, which gives the same per-document atomicity
// the database backends get from single conditional statements.
package memory

import (
	"context"
	"sync"

	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
)

type Store struct {
	mu       sync.RWMutex
	accounts *AccountRepository
	events   *EventRepository
}

var _ storage.Store = (*Store)(nil)

func NewStore() *Store {
	s := &Store{}
	s.accounts = &AccountRepository{
		mu:         &s.mu,
		byID:       map[string]*users.Account{},
		byUsername: map[string]string{},
		byEmail:    map[string]string{},
		byToken:    map[string]string{},
	}
	s.events = &EventRepository{
		mu:   &s.mu,
		byID: map[string]*events.Event{},
	}
	return s
}

func (s *Store) Accounts() users.Repository {
	return s.accounts
}

func (s *Store) Events() events.Repository {
	return s.events
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close(context.Context) error {
	return nil
}
