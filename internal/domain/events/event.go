package events

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound       = errors.New("event not found")
	ErrAlreadyJoined  = errors.New("already joined")
	ErrNoSuchAttendee = errors.New("no such attendee")
	ErrForbidden      = errors.New("forbidden")
	ErrValidation     = errors.New("validation failed")
)

// Category classifies an event.
type Category string

const (
	CategorySocial    Category = "social"
	CategorySports    Category = "sports"
	CategoryCulture   Category = "culture"
	CategoryFood      Category = "food"
	CategoryOutdoors  Category = "outdoors"
	CategoryEducation Category = "education"
	CategoryMusic     Category = "music"
	CategoryOther     Category = "other"
)

// Categories lists every accepted category in display order.
var Categories = []Category{
	CategorySocial,
	CategorySports,
	CategoryCulture,
	CategoryFood,
	CategoryOutdoors,
	CategoryEducation,
	CategoryMusic,
	CategoryOther,
}

// ParseCategory normalizes value. ok is false for unknown categories.
func ParseCategory(value string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(value)))
	for _, c := range Categories {
		if c == normalized {
			return c, true
		}
	}
	return "", false
}

type Event struct {
	ID        string
	Name      string
	DateTime  *time.Time
	Venue     string
	Address   string
	Category  Category
	Summary   string
	CreatedBy string
	Attendees []Attendee
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Attendee is a snapshot of one member taken when they joined.
type Attendee struct {
	AttendeeName        string
	AttendeeHomeCountry string
	AttendeeUserID      string
}

// HasAttendee reports whether userID is in the attendee list.
func (e *Event) HasAttendee(userID string) bool {
	for _, a := range e.Attendees {
		if a.AttendeeUserID == userID {
			return true
		}
	}
	return false
}

// EventInput holds client-supplied fields for a new event. There is no owner
// field; the owner always comes from the authenticated caller.
type EventInput struct {
	Name     string     `json:"eventName" validate:"required,max=200"`
	DateTime *time.Time `json:"dateTime"`
	Venue    string     `json:"venue" validate:"max=200"`
	Address  string     `json:"address" validate:"max=300"`
	Category string     `json:"category" validate:"omitempty,oneof=social sports culture food outdoors education music other"`
	Summary  string     `json:"summary" validate:"max=5000"`
}

// EventPatch holds a partial update. Empty strings and a nil DateTime leave
// the stored value unchanged.
type EventPatch struct {
	Name     string     `json:"eventName" validate:"max=200"`
	DateTime *time.Time `json:"dateTime"`
	Venue    string     `json:"venue" validate:"max=200"`
	Address  string     `json:"address" validate:"max=300"`
	Category Category   `json:"category" validate:"omitempty,oneof=social sports culture food outdoors education music other"`
	Summary  string     `json:"summary" validate:"max=5000"`
}

func (p EventPatch) IsEmpty() bool {
	return p.Name == "" && p.DateTime == nil && p.Venue == "" &&
		p.Address == "" && p.Category == "" && p.Summary == ""
}

// Apply merges non-empty patch fields over e.
func (p EventPatch) Apply(e *Event) {
	if p.Name != "" {
		e.Name = p.Name
	}
	if p.DateTime != nil {
		dt := *p.DateTime
		e.DateTime = &dt
	}
	if p.Venue != "" {
		e.Venue = p.Venue
	}
	if p.Address != "" {
		e.Address = p.Address
	}
	if p.Category != "" {
		e.Category = p.Category
	}
	if p.Summary != "" {
		e.Summary = p.Summary
	}
}

// Repository persists events. Update and Delete match on both id and owner
// in one statement; a miss on either is ErrNotFound. AppendAttendee and
// RemoveAttendee are single conditional mutations on the event.
type Repository interface {
	Create(ctx context.Context, event Event) (*Event, error)
	List(ctx context.Context) ([]Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	Update(ctx context.Context, id, owner string, patch EventPatch) (*Event, error)
	Delete(ctx context.Context, id, owner string) error
	// AppendAttendee adds attendee unless an entry with the same user id
	// exists (ErrAlreadyJoined).
	AppendAttendee(ctx context.Context, id string, attendee Attendee) (*Event, error)
	// RemoveAttendee drops every entry for userID (ErrNoSuchAttendee when
	// there are none).
	RemoveAttendee(ctx context.Context, id, userID string) (*Event, error)
}
