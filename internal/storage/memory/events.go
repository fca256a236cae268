package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
)

type EventRepository struct {
	mu   *sync.RWMutex
	byID map[string]*events.Event
}

func (r *EventRepository) Create(ctx context.Context, event events.Event) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Attendees == nil {
		event.Attendees = []events.Attendee{}
	}
	stored := copyEvent(event)
	r.byID[stored.ID] = stored
	return copyEvent(*stored), nil
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]events.Event, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, *copyEvent(*e))
	}
	// ULIDs sort by creation time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	return copyEvent(*e), nil
}

func (r *EventRepository) Update(ctx context.Context, id, owner string, patch events.EventPatch) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok || e.CreatedBy != owner {
		return nil, events.ErrNotFound
	}
	patch.Apply(e)
	e.UpdatedAt = time.Now().UTC()
	return copyEvent(*e), nil
}

func (r *EventRepository) Delete(ctx context.Context, id, owner string) error {
	if err := ctx.Err(); err != nil {
		return storage.ClassifyContext(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok || e.CreatedBy != owner {
		return events.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *EventRepository) AppendAttendee(ctx context.Context, id string, attendee events.Attendee) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	if e.HasAttendee(attendee.AttendeeUserID) {
		return nil, events.ErrAlreadyJoined
	}
	e.Attendees = append(e.Attendees, attendee)
	e.UpdatedAt = time.Now().UTC()
	return copyEvent(*e), nil
}

func (r *EventRepository) RemoveAttendee(ctx context.Context, id, userID string) (*events.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.ClassifyContext(err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, events.ErrNotFound
	}
	kept := make([]events.Attendee, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		if a.AttendeeUserID != userID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(e.Attendees) {
		return nil, events.ErrNoSuchAttendee
	}
	e.Attendees = kept
	e.UpdatedAt = time.Now().UTC()
	return copyEvent(*e), nil
}

func copyEvent(e events.Event) *events.Event {
	if e.DateTime != nil {
		dt := *e.DateTime
		e.DateTime = &dt
	}
	attendees := make([]events.Attendee, len(e.Attendees))
	copy(attendees, e.Attendees)
	e.Attendees = attendees
	return &e
}
