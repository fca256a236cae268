package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/jackc/pgx/v5"
)

type EventRepository struct {
	db      queryer
	timeout time.Duration
}

const eventColumns = `id, name, date_time, venue, address, category, summary,
       created_by, attendees, created_at, updated_at`

// attendeeDoc is the JSONB shape of one attendees element.
type attendeeDoc struct {
	AttendeeName        string `json:"attendeeName"`
	AttendeeHomeCountry string `json:"attendeeHomeCountry"`
	AttendeeUserID      string `json:"attendeeUserId"`
}

func (r *EventRepository) Create(ctx context.Context, event events.Event) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	attendees, err := encodeAttendees(event.Attendees)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRow(ctx, `
INSERT INTO events (id, name, date_time, venue, address, category, summary, created_by, attendees, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $10)
RETURNING `+eventColumns,
		event.ID,
		event.Name,
		event.DateTime,
		event.Venue,
		event.Address,
		string(event.Category),
		event.Summary,
		event.CreatedBy,
		attendees,
		event.CreatedAt,
	)
	created, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", classify(err))
	}
	return created, nil
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", classify(err))
	}
	defer rows.Close()

	out := []events.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", classify(err))
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", classify(err))
	}
	return out, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	e, err := scanEvent(r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", classify(err))
	}
	return e, nil
}

// Update merges patch into the event only when owner still owns it.
func (r *EventRepository) Update(ctx context.Context, id, owner string, patch events.EventPatch) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRow(ctx, `
UPDATE events SET
  name       = COALESCE(NULLIF($3::text, ''), name),
  date_time  = COALESCE($4::timestamptz, date_time),
  venue      = COALESCE(NULLIF($5::text, ''), venue),
  address    = COALESCE(NULLIF($6::text, ''), address),
  category   = COALESCE(NULLIF($7::text, ''), category),
  summary    = COALESCE(NULLIF($8::text, ''), summary),
  updated_at = now()
WHERE id = $1 AND created_by = $2
RETURNING `+eventColumns,
		id,
		owner,
		patch.Name,
		patch.DateTime,
		patch.Venue,
		patch.Address,
		string(patch.Category),
		patch.Summary,
	)
	updated, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", classify(err))
	}
	return updated, nil
}

func (r *EventRepository) Delete(ctx context.Context, id, owner string) error {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1 AND created_by = $2`, id, owner)
	if err != nil {
		return fmt.Errorf("delete event: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

// AppendAttendee appends in one UPDATE guarded by a containment test on the
// user id. Concurrent joins serialize on the row lock and the loser's
// re-checked predicate fails.
func (r *EventRepository) AppendAttendee(ctx context.Context, id string, attendee events.Attendee) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRow(ctx, `
UPDATE events SET
  attendees  = attendees || jsonb_build_array(jsonb_build_object(
                 'attendeeName', $2::text,
                 'attendeeHomeCountry', $3::text,
                 'attendeeUserId', $4::text)),
  updated_at = now()
WHERE id = $1
  AND NOT attendees @> jsonb_build_array(jsonb_build_object('attendeeUserId', $4::text))
RETURNING `+eventColumns,
		id,
		attendee.AttendeeName,
		attendee.AttendeeHomeCountry,
		attendee.AttendeeUserID,
	)
	updated, err := scanEvent(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("append attendee: %w", classify(err))
	}
	return nil, r.missReason(ctx, id, events.ErrAlreadyJoined)
}

// RemoveAttendee rebuilds the array without any element for userID,
// keeping the order of the rest.
func (r *EventRepository) RemoveAttendee(ctx context.Context, id, userID string) (*events.Event, error) {
	ctx, cancel := storage.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRow(ctx, `
UPDATE events SET
  attendees  = COALESCE((
                 SELECT jsonb_agg(a.value ORDER BY a.ord)
                   FROM jsonb_array_elements(events.attendees) WITH ORDINALITY AS a(value, ord)
                  WHERE a.value->>'attendeeUserId' IS DISTINCT FROM $2::text
               ), '[]'::jsonb),
  updated_at = now()
WHERE id = $1
  AND attendees @> jsonb_build_array(jsonb_build_object('attendeeUserId', $2::text))
RETURNING `+eventColumns,
		id,
		userID,
	)
	updated, err := scanEvent(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("remove attendee: %w", classify(err))
	}
	return nil, r.missReason(ctx, id, events.ErrNoSuchAttendee)
}

// missReason explains a conditional update that matched no row: either the
// event is gone or the membership predicate failed.
func (r *EventRepository) missReason(ctx context.Context, id string, predicateErr error) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check event: %w", classify(err))
	}
	if !exists {
		return events.ErrNotFound
	}
	return predicateErr
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		e         events.Event
		category  string
		attendees []byte
	)
	if err := row.Scan(
		&e.ID,
		&e.Name,
		&e.DateTime,
		&e.Venue,
		&e.Address,
		&category,
		&e.Summary,
		&e.CreatedBy,
		&attendees,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Category = events.Category(category)
	decoded, err := decodeAttendees(attendees)
	if err != nil {
		return nil, err
	}
	e.Attendees = decoded
	if e.DateTime != nil {
		dt := e.DateTime.UTC()
		e.DateTime = &dt
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}

func encodeAttendees(list []events.Attendee) ([]byte, error) {
	docs := make([]attendeeDoc, 0, len(list))
	for _, a := range list {
		docs = append(docs, attendeeDoc(a))
	}
	raw, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("encode attendees: %w", err)
	}
	return raw, nil
}

func decodeAttendees(raw []byte) ([]events.Attendee, error) {
	out := []events.Attendee{}
	if len(raw) == 0 {
		return out, nil
	}
	var docs []attendeeDoc
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("decode attendees: %w", err)
	}
	for _, d := range docs {
		out = append(out, events.Attendee(d))
	}
	return out, nil
}
