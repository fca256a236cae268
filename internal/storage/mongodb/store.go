// Package mongodb stores accounts and events as documents. Attendees are an
// array embedded in the event document so join and leave are single-document
// updates.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	accountsCollection = "accounts"
	eventsCollection   = "events"
)

// Index names double as the conflict discriminator on duplicate key errors.
const (
	accountsUsernameIndex = "accounts_username_key"
	accountsTokenIndex    = "accounts_access_token_key"
	accountsEmailIndex    = "accounts_email_address_key"
	eventsCreatedByIndex  = "events_created_by_idx"
	eventsAttendeeIndex   = "events_attendee_user_idx"
)

type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	timeout  time.Duration
	accounts *AccountRepository
	events   *EventRepository
}

var _ storage.Store = (*Store)(nil)

// Open connects to uri, verifies the primary is reachable and makes sure
// the indexes exist.
func Open(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetTimeout(timeout).
		SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	store := NewStore(client, database, timeout)
	if err := store.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

func NewStore(client *mongo.Client, database string, timeout time.Duration) *Store {
	db := client.Database(database)
	return &Store{
		client:   client,
		db:       db,
		timeout:  timeout,
		accounts: &AccountRepository{coll: db.Collection(accountsCollection), timeout: timeout},
		events:   &EventRepository{coll: db.Collection(eventsCollection), timeout: timeout},
	}
}

// EnsureIndexes creates the uniqueness and lookup indexes. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.Collection(accountsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(accountsUsernameIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "access_token", Value: 1}},
			Options: options.Index().SetName(accountsTokenIndex).SetUnique(true),
		},
		{
			// Only non-empty addresses take part in uniqueness.
			Keys: bson.D{{Key: "email_address", Value: 1}},
			Options: options.Index().
				SetName(accountsEmailIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "email_address", Value: bson.D{{Key: "$gt", Value: ""}}}}),
		},
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", classify(err))
	}

	_, err = s.db.Collection(eventsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: options.Index().SetName(eventsCreatedByIndex),
		},
		{
			Keys:    bson.D{{Key: "attendees.user_id", Value: 1}},
			Options: options.Index().SetName(eventsAttendeeIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("create event indexes: %w", classify(err))
	}
	return nil
}

func (s *Store) Accounts() users.Repository {
	return s.accounts
}

func (s *Store) Events() events.Repository {
	return s.events
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := storage.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return storage.Unavailable(err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
