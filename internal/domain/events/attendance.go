package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/domain/ids"
)

// Join adds the caller to the event's attendees. The duplicate check and the
// append happen in one store operation keyed on the caller's account id.
func (s *Service) Join(ctx context.Context, principal auth.Principal, eventID, homeCountry string) (*Event, error) {
	if principal.IsZero() {
		return nil, auth.ErrForbidden
	}
	if err := ids.ValidateULID(eventID); err != nil {
		return nil, ErrNotFound
	}

	event, err := s.repo.AppendAttendee(ctx, ids.NormalizeULID(eventID), Attendee{
		AttendeeName:        principal.Username,
		AttendeeHomeCountry: homeCountry,
		AttendeeUserID:      principal.ID,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyJoined) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("join event: %w", err)
	}
	s.logger.Debug().Str("event_id", event.ID).Str("account_id", principal.ID).Msg("attendee added")
	return event, nil
}

// Leave removes attendeeUserID from the event. Callers may only remove
// themselves.
func (s *Service) Leave(ctx context.Context, principal auth.Principal, eventID, attendeeUserID string) (*Event, error) {
	if err := auth.AuthorizeSelf(principal, attendeeUserID); err != nil {
		s.auditLogger.LogDenied(ctx, "event.leave", principal.Username, "event", eventID,
			map[string]string{"attendee_user_id": attendeeUserID})
		return nil, ErrForbidden
	}
	if err := ids.ValidateULID(eventID); err != nil {
		return nil, ErrNotFound
	}

	event, err := s.repo.RemoveAttendee(ctx, ids.NormalizeULID(eventID), attendeeUserID)
	if err != nil {
		if errors.Is(err, ErrNoSuchAttendee) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("leave event: %w", err)
	}
	s.logger.Debug().Str("event_id", event.ID).Str("account_id", principal.ID).Msg("attendee removed")
	return event, nil
}
