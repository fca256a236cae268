package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/audit"
	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/domain/ids"
	"github.com/beemailley/final-project-backend-bm/internal/sanitize"
	"github.com/beemailley/final-project-backend-bm/internal/validation"
	"github.com/rs/zerolog"
)

type Service struct {
	repo        Repository
	auditLogger *audit.Logger
	logger      zerolog.Logger
	now         func() time.Time
}

func NewService(repo Repository, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	if auditLogger == nil {
		auditLogger = audit.Nop()
	}
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
		logger:      logger.With().Str("component", "events").Logger(),
		now:         time.Now,
	}
}

// Create stores a new event owned by principal.
func (s *Service) Create(ctx context.Context, principal auth.Principal, input EventInput) (*Event, error) {
	if principal.IsZero() {
		return nil, auth.ErrForbidden
	}
	input = cleanInput(input)
	if err := validation.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	category := CategoryOther
	if input.Category != "" {
		category, _ = ParseCategory(input.Category)
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("generate event id: %w", err)
	}
	now := s.now().UTC()
	created, err := s.repo.Create(ctx, Event{
		ID:        id,
		Name:      input.Name,
		DateTime:  utcPtr(input.DateTime),
		Venue:     input.Venue,
		Address:   input.Address,
		Category:  category,
		Summary:   input.Summary,
		CreatedBy: principal.Username,
		Attendees: []Attendee{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info().Str("event_id", created.ID).Str("created_by", created.CreatedBy).Msg("event created")
	return created, nil
}

// List returns every event. No events is an empty, non-nil slice.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if list == nil {
		list = []Event{}
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	if err := ids.ValidateULID(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, ids.NormalizeULID(id))
}

// Update merges patch into an event owned by principal. Events owned by
// someone else are reported as ErrNotFound.
func (s *Service) Update(ctx context.Context, principal auth.Principal, id string, patch EventPatch) (*Event, error) {
	existing, err := s.authorize(ctx, principal, id, "event.update")
	if err != nil {
		return nil, err
	}

	patch = cleanPatch(patch)
	if err := validation.Struct(patch); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	patch.DateTime = utcPtr(patch.DateTime)
	if patch.IsEmpty() {
		return existing, nil
	}

	updated, err := s.repo.Update(ctx, existing.ID, principal.Username, patch)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	s.auditLogger.LogSuccess(ctx, "event.update", principal.Username, "event", updated.ID, nil)
	return updated, nil
}

// Delete removes an event owned by principal together with its attendees.
func (s *Service) Delete(ctx context.Context, principal auth.Principal, id string) error {
	existing, err := s.authorize(ctx, principal, id, "event.delete")
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, existing.ID, principal.Username); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	s.auditLogger.LogSuccess(ctx, "event.delete", principal.Username, "event", existing.ID,
		map[string]string{"attendees": fmt.Sprint(len(existing.Attendees))})
	return nil
}

// authorize loads the event and applies the ownership guard. A denial is
// audited and returned as ErrNotFound.
func (s *Service) authorize(ctx context.Context, principal auth.Principal, id, action string) (*Event, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.AuthorizeOwner(principal, existing.CreatedBy); err != nil {
		s.auditLogger.LogDenied(ctx, action, principal.Username, "event", existing.ID,
			map[string]string{"reason": "not owner"})
		return nil, ErrNotFound
	}
	return existing, nil
}

func cleanInput(in EventInput) EventInput {
	in.Name = sanitize.Field(in.Name)
	in.Venue = sanitize.Field(in.Venue)
	in.Address = sanitize.Field(in.Address)
	in.Category = sanitize.Field(in.Category)
	if c, ok := ParseCategory(in.Category); ok {
		in.Category = string(c)
	}
	in.Summary = sanitize.Field(in.Summary)
	return in
}

func cleanPatch(p EventPatch) EventPatch {
	p.Name = sanitize.Field(p.Name)
	p.Venue = sanitize.Field(p.Venue)
	p.Address = sanitize.Field(p.Address)
	p.Category = Category(sanitize.Field(string(p.Category)))
	if c, ok := ParseCategory(string(p.Category)); ok {
		p.Category = c
	}
	p.Summary = sanitize.Field(p.Summary)
	return p
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
