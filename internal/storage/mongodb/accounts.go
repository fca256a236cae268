package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/domain/ids"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AccountRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

type accountDoc struct {
	ID           string     `bson:"_id"`
	Username     string     `bson:"username"`
	EmailAddress string     `bson:"email_address"`
	PasswordHash string     `bson:"password_hash"`
	AccessToken  string     `bson:"access_token"`
	FirstName    string     `bson:"first_name"`
	LastName     string     `bson:"last_name"`
	Gender       string     `bson:"gender"`
	Birthday     *time.Time `bson:"birthday,omitempty"`
	Interests    string     `bson:"interests"`
	CurrentCity  string     `bson:"current_city"`
	HomeCountry  string     `bson:"home_country"`
	Languages    string     `bson:"languages"`
	MemberSince  time.Time  `bson:"member_since"`
	UpdatedAt    time.Time  `bson:"updated_at"`
}

func (r *AccountRepository) Create(ctx context.Context, account users.Account) (*users.Account, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	if account.ID == "" {
		account.ID = ids.NewUUID()
	}
	doc := toAccountDoc(account)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		switch duplicateIndex(err, accountsUsernameIndex, accountsEmailIndex, accountsTokenIndex) {
		case accountsUsernameIndex:
			return nil, users.ErrUsernameTaken
		case accountsEmailIndex:
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert account: %w", classify(err))
	}
	return doc.toAccount(), nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*users.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *AccountRepository) GetByAccessToken(ctx context.Context, token string) (*users.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "access_token", Value: token}})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.D) (*users.Account, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc accountDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", classify(err))
	}
	return doc.toAccount(), nil
}

func (r *AccountRepository) List(ctx context.Context) ([]users.Account, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "member_since", Value: 1}, {Key: "username", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", classify(err))
	}
	var docs []accountDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", classify(err))
	}
	out := make([]users.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toAccount())
	}
	return out, nil
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, patch users.ProfilePatch) (*users.Account, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	set = appendSet(set, "first_name", patch.FirstName)
	set = appendSet(set, "last_name", patch.LastName)
	set = appendSet(set, "email_address", patch.EmailAddress)
	set = appendSet(set, "gender", patch.Gender)
	set = appendSet(set, "interests", patch.Interests)
	set = appendSet(set, "current_city", patch.CurrentCity)
	set = appendSet(set, "home_country", patch.HomeCountry)
	set = appendSet(set, "languages", patch.Languages)
	if patch.Birthday != nil {
		set = append(set, bson.E{Key: "birthday", Value: patch.Birthday.UTC()})
	}

	var doc accountDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, users.ErrNotFound
		}
		if duplicateIndex(err, accountsEmailIndex) != "" {
			return nil, users.ErrEmailTaken
		}
		return nil, fmt.Errorf("update account: %w", classify(err))
	}
	return doc.toAccount(), nil
}

// appendSet adds key to a $set document unless value is empty.
func appendSet(set bson.D, key, value string) bson.D {
	if value == "" {
		return set
	}
	return append(set, bson.E{Key: key, Value: value})
}

func toAccountDoc(a users.Account) accountDoc {
	return accountDoc{
		ID:           a.ID,
		Username:     a.Username,
		EmailAddress: a.EmailAddress,
		PasswordHash: a.PasswordHash,
		AccessToken:  a.AccessToken,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Gender:       a.Gender,
		Birthday:     a.Birthday,
		Interests:    a.Interests,
		CurrentCity:  a.CurrentCity,
		HomeCountry:  a.HomeCountry,
		Languages:    a.Languages,
		MemberSince:  a.MemberSince.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
}

func (d accountDoc) toAccount() *users.Account {
	a := &users.Account{
		ID:           d.ID,
		Username:     d.Username,
		EmailAddress: d.EmailAddress,
		PasswordHash: d.PasswordHash,
		AccessToken:  d.AccessToken,
		Profile: users.Profile{
			FirstName:   d.FirstName,
			LastName:    d.LastName,
			Gender:      d.Gender,
			Interests:   d.Interests,
			CurrentCity: d.CurrentCity,
			HomeCountry: d.HomeCountry,
			Languages:   d.Languages,
		},
		MemberSince: d.MemberSince.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.Birthday != nil {
		b := d.Birthday.UTC()
		a.Birthday = &b
	}
	return a
}
