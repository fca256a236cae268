package events_test

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/audit"
	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	alice = auth.Principal{ID: "11111111-1111-1111-1111-111111111111", Username: "alice"}
	bob   = auth.Principal{ID: "22222222-2222-2222-2222-222222222222", Username: "bob"}
)

func newService(t *testing.T) *events.Service {
	t.Helper()
	return events.NewService(memory.NewStore().Events(), nil, zerolog.Nop())
}

func createEvent(t *testing.T, svc *events.Service, owner auth.Principal) *events.Event {
	t.Helper()
	e, err := svc.Create(context.Background(), owner, events.EventInput{Name: "Meetup"})
	require.NoError(t, err)
	return e
}

func TestCreate_OwnerFromPrincipal(t *testing.T) {
	svc := newService(t)
	when := time.Date(2026, 11, 1, 18, 0, 0, 0, time.FixedZone("CET", 3600))

	e, err := svc.Create(context.Background(), alice, events.EventInput{
		Name:     "  <i>Board games</i> ",
		DateTime: &when,
		Venue:    "Cafe",
		Category: "Social",
	})
	require.NoError(t, err)
	require.NotEmpty(t, e.ID)
	require.Equal(t, "alice", e.CreatedBy)
	require.Equal(t, "Board games", e.Name)
	require.Equal(t, events.CategorySocial, e.Category)
	require.Equal(t, time.UTC, e.DateTime.Location())
	require.True(t, when.Equal(*e.DateTime))
	require.NotNil(t, e.Attendees)
	require.Empty(t, e.Attendees)
}

func TestCreate_DefaultsAndValidation(t *testing.T) {
	svc := newService(t)

	e, err := svc.Create(context.Background(), alice, events.EventInput{Name: "Meetup"})
	require.NoError(t, err)
	require.Equal(t, events.CategoryOther, e.Category)

	_, err = svc.Create(context.Background(), alice, events.EventInput{})
	require.ErrorIs(t, err, events.ErrValidation)

	_, err = svc.Create(context.Background(), alice, events.EventInput{Name: "x", Category: "rave"})
	require.ErrorIs(t, err, events.ErrValidation)

	_, err = svc.Create(context.Background(), auth.Principal{}, events.EventInput{Name: "x"})
	require.ErrorIs(t, err, auth.ErrForbidden)
}

func TestList_EmptyIsNotAnError(t *testing.T) {
	svc := newService(t)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	createEvent(t, svc, alice)
	createEvent(t, svc, bob)
	list, err = svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestGet_UnknownAndMalformedIDs(t *testing.T) {
	svc := newService(t)

	_, err := svc.Get(context.Background(), "01HYX3KQW7ERTV9XNBM2P8QJZF")
	require.ErrorIs(t, err, events.ErrNotFound)

	_, err = svc.Get(context.Background(), "not-an-id")
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestUpdate_MergeOnPresent(t *testing.T) {
	svc := newService(t)
	e, err := svc.Create(context.Background(), alice, events.EventInput{Name: "Meetup", Venue: "Cafe", Summary: "Bring snacks"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), alice, e.ID, events.EventPatch{Venue: "Library", Summary: ""})
	require.NoError(t, err)
	require.Equal(t, "Meetup", updated.Name)
	require.Equal(t, "Library", updated.Venue)
	require.Equal(t, "Bring snacks", updated.Summary)
	require.Equal(t, "alice", updated.CreatedBy)

	same, err := svc.Update(context.Background(), alice, e.ID, events.EventPatch{})
	require.NoError(t, err)
	require.Equal(t, "Library", same.Venue)
}

func TestUpdateDelete_NonOwnerLooksLikeNotFound(t *testing.T) {
	var buf bytes.Buffer
	svc := events.NewService(memory.NewStore().Events(), audit.NewLogger(zerolog.New(&buf)), zerolog.Nop())
	e := createEvent(t, svc, alice)

	_, errOwner := svc.Update(context.Background(), bob, e.ID, events.EventPatch{Name: "Mine now"})
	_, errMissing := svc.Update(context.Background(), bob, "01HYX3KQW7ERTV9XNBM2P8QJZF", events.EventPatch{Name: "x"})
	require.ErrorIs(t, errOwner, events.ErrNotFound)
	require.Equal(t, errMissing, errOwner)

	require.ErrorIs(t, svc.Delete(context.Background(), bob, e.ID), events.ErrNotFound)
	require.Contains(t, buf.String(), `"status":"denied"`)

	got, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	require.Equal(t, "Meetup", got.Name)
}

func TestDelete_RemovesEventWithAttendees(t *testing.T) {
	svc := newService(t)
	e := createEvent(t, svc, alice)
	_, err := svc.Join(context.Background(), bob, e.ID, "Norway")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), alice, e.ID))

	_, err = svc.Get(context.Background(), e.ID)
	require.ErrorIs(t, err, events.ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), alice, e.ID), events.ErrNotFound)
}

func TestJoin(t *testing.T) {
	svc := newService(t)
	e := createEvent(t, svc, alice)

	joined, err := svc.Join(context.Background(), bob, e.ID, "Norway")
	require.NoError(t, err)
	require.Equal(t, []events.Attendee{{
		AttendeeName:        "bob",
		AttendeeHomeCountry: "Norway",
		AttendeeUserID:      bob.ID,
	}}, joined.Attendees)

	_, err = svc.Join(context.Background(), bob, e.ID, "Norway")
	require.ErrorIs(t, err, events.ErrAlreadyJoined)

	got, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendees, 1)

	_, err = svc.Join(context.Background(), bob, "01HYX3KQW7ERTV9XNBM2P8QJZF", "")
	require.ErrorIs(t, err, events.ErrNotFound)
}

func TestJoin_MatchesByIDNotName(t *testing.T) {
	svc := newService(t)
	e := createEvent(t, svc, alice)

	_, err := svc.Join(context.Background(), bob, e.ID, "")
	require.NoError(t, err)

	renamed := auth.Principal{ID: "33333333-3333-3333-3333-333333333333", Username: "bob"}
	got, err := svc.Join(context.Background(), renamed, e.ID, "")
	require.NoError(t, err)
	require.Len(t, got.Attendees, 2)
}

func TestJoin_Concurrent(t *testing.T) {
	svc := newService(t)
	e := createEvent(t, svc, alice)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Join(context.Background(), bob, e.ID, "")
		}()
	}
	wg.Wait()

	got, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	require.Len(t, got.Attendees, 1)
}

func TestLeave(t *testing.T) {
	svc := newService(t)
	e := createEvent(t, svc, alice)
	_, err := svc.Join(context.Background(), alice, e.ID, "")
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), bob, e.ID, "")
	require.NoError(t, err)

	t.Run("someone else's entry is forbidden", func(t *testing.T) {
		_, err := svc.Leave(context.Background(), alice, e.ID, bob.ID)
		require.ErrorIs(t, err, events.ErrForbidden)
	})

	t.Run("own entry removed", func(t *testing.T) {
		got, err := svc.Leave(context.Background(), bob, e.ID, bob.ID)
		require.NoError(t, err)
		require.Len(t, got.Attendees, 1)
		require.False(t, got.HasAttendee(bob.ID))
	})

	t.Run("not attending", func(t *testing.T) {
		_, err := svc.Leave(context.Background(), bob, e.ID, bob.ID)
		require.ErrorIs(t, err, events.ErrNoSuchAttendee)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := svc.Leave(context.Background(), bob, "01HYX3KQW7ERTV9XNBM2P8QJZF", bob.ID)
		require.ErrorIs(t, err, events.ErrNotFound)
	})
}

func TestParseCategory(t *testing.T) {
	c, ok := events.ParseCategory(" Music ")
	require.True(t, ok)
	require.Equal(t, events.CategoryMusic, c)

	_, ok = events.ParseCategory("rave")
	require.False(t, ok)
}
