package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type EventRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

type eventDoc struct {
	ID        string        `bson:"_id"`
	Name      string        `bson:"name"`
	DateTime  *time.Time    `bson:"date_time,omitempty"`
	Venue     string        `bson:"venue"`
	Address   string        `bson:"address"`
	Category  string        `bson:"category"`
	Summary   string        `bson:"summary"`
	CreatedBy string        `bson:"created_by"`
	Attendees []attendeeDoc `bson:"attendees"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type attendeeDoc struct {
	Name        string `bson:"name"`
	HomeCountry string `bson:"home_country"`
	UserID      string `bson:"user_id"`
}

var afterUpdate = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (r *EventRepository) Create(ctx context.Context, event events.Event) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := toEventDoc(event)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert event: %w", classify(err))
	}
	return doc.toEvent(), nil
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list events: %w", classify(err))
	}
	var docs []eventDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", classify(err))
	}
	out := make([]events.Event, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toEvent())
	}
	return out, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc eventDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", classify(err))
	}
	return doc.toEvent(), nil
}

func (r *EventRepository) Update(ctx context.Context, id, owner string, patch events.EventPatch) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	set := bson.D{{Key: "updated_at", Value: time.Now().UTC()}}
	set = appendSet(set, "name", patch.Name)
	set = appendSet(set, "venue", patch.Venue)
	set = appendSet(set, "address", patch.Address)
	set = appendSet(set, "category", string(patch.Category))
	set = appendSet(set, "summary", patch.Summary)
	if patch.DateTime != nil {
		set = append(set, bson.E{Key: "date_time", Value: patch.DateTime.UTC()})
	}

	filter := bson.D{{Key: "_id", Value: id}, {Key: "created_by", Value: owner}}
	return r.findAndModify(ctx, filter, bson.D{{Key: "$set", Value: set}}, "update event")
}

func (r *EventRepository) Delete(ctx context.Context, id, owner string) error {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}, {Key: "created_by", Value: owner}})
	if err != nil {
		return fmt.Errorf("delete event: %w", classify(err))
	}
	if res.DeletedCount == 0 {
		return events.ErrNotFound
	}
	return nil
}

// AppendAttendee pushes the attendee only if no element carries the same
// user id. The filter and the push are evaluated atomically on the document.
func (r *EventRepository) AppendAttendee(ctx context.Context, id string, attendee events.Attendee) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "attendees.user_id", Value: bson.D{{Key: "$ne", Value: attendee.AttendeeUserID}}},
	}
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "attendees", Value: attendeeDoc{
			Name:        attendee.AttendeeName,
			HomeCountry: attendee.AttendeeHomeCountry,
			UserID:      attendee.AttendeeUserID,
		}}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}
	updated, err := r.findAndModify(ctx, filter, update, "append attendee")
	if errors.Is(err, events.ErrNotFound) {
		return nil, r.missReason(ctx, id, events.ErrAlreadyJoined)
	}
	return updated, err
}

func (r *EventRepository) RemoveAttendee(ctx context.Context, id, userID string) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.D{{Key: "_id", Value: id}, {Key: "attendees.user_id", Value: userID}}
	update := bson.D{
		{Key: "$pull", Value: bson.D{{Key: "attendees", Value: bson.D{{Key: "user_id", Value: userID}}}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}},
	}
	updated, err := r.findAndModify(ctx, filter, update, "remove attendee")
	if errors.Is(err, events.ErrNotFound) {
		return nil, r.missReason(ctx, id, events.ErrNoSuchAttendee)
	}
	return updated, err
}

func (r *EventRepository) findAndModify(ctx context.Context, filter, update bson.D, op string) (*events.Event, error) {
	var doc eventDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, afterUpdate).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, classify(err))
	}
	return doc.toEvent(), nil
}

// missReason tells a missing event apart from a failed membership filter.
func (r *EventRepository) missReason(ctx context.Context, id string, predicateErr error) error {
	n, err := r.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("check event: %w", classify(err))
	}
	if n == 0 {
		return events.ErrNotFound
	}
	return predicateErr
}

func toEventDoc(e events.Event) eventDoc {
	doc := eventDoc{
		ID:        e.ID,
		Name:      e.Name,
		Venue:     e.Venue,
		Address:   e.Address,
		Category:  string(e.Category),
		Summary:   e.Summary,
		CreatedBy: e.CreatedBy,
		Attendees: make([]attendeeDoc, 0, len(e.Attendees)),
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
	if e.DateTime != nil {
		dt := e.DateTime.UTC()
		doc.DateTime = &dt
	}
	for _, a := range e.Attendees {
		doc.Attendees = append(doc.Attendees, attendeeDoc{
			Name:        a.AttendeeName,
			HomeCountry: a.AttendeeHomeCountry,
			UserID:      a.AttendeeUserID,
		})
	}
	return doc
}

func (d eventDoc) toEvent() *events.Event {
	e := &events.Event{
		ID:        d.ID,
		Name:      d.Name,
		Venue:     d.Venue,
		Address:   d.Address,
		Category:  events.Category(d.Category),
		Summary:   d.Summary,
		CreatedBy: d.CreatedBy,
		Attendees: make([]events.Attendee, 0, len(d.Attendees)),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
	if d.DateTime != nil {
		dt := d.DateTime.UTC()
		e.DateTime = &dt
	}
	for _, a := range d.Attendees {
		e.Attendees = append(e.Attendees, events.Attendee{
			AttendeeName:        a.Name,
			AttendeeHomeCountry: a.HomeCountry,
			AttendeeUserID:      a.UserID,
		})
	}
	return e
}
