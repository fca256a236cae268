package handlers

import (
	"net/http"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/api/envelope"
	"github.com/beemailley/final-project-backend-bm/internal/api/middleware"
	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/domain/events"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/metrics"
)

type EventsHandler struct {
	Events *events.Service
	Env    string
}

func NewEventsHandler(service *events.Service, env string) *EventsHandler {
	return &EventsHandler{Events: service, Env: env}
}

type eventResponse struct {
	ID        string             `json:"id"`
	EventName string             `json:"eventName"`
	DateTime  *time.Time         `json:"dateTime"`
	Venue     string             `json:"venue"`
	Address   string             `json:"address"`
	Category  string             `json:"category"`
	Summary   string             `json:"summary"`
	CreatedBy string             `json:"createdBy"`
	Attendees []attendeeResponse `json:"attendees"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type attendeeResponse struct {
	AttendeeName        string `json:"attendeeName"`
	AttendeeHomeCountry string `json:"attendeeHomeCountry"`
	AttendeeUserID      string `json:"attendeeUserId"`
}

func toEventResponse(e events.Event) eventResponse {
	attendees := make([]attendeeResponse, 0, len(e.Attendees))
	for _, a := range e.Attendees {
		attendees = append(attendees, attendeeResponse(a))
	}
	return eventResponse{
		ID:        e.ID,
		EventName: e.Name,
		DateTime:  e.DateTime,
		Venue:     e.Venue,
		Address:   e.Address,
		Category:  string(e.Category),
		Summary:   e.Summary,
		CreatedBy: e.CreatedBy,
		Attendees: attendees,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Events.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	out := make([]eventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, toEventResponse(e))
	}
	envelope.Success(w, http.StatusOK, out, "")
}

func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.Events.Get(r.Context(), pathParam(r, "eventId"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	envelope.Success(w, http.StatusOK, toEventResponse(*event), "")
}

func (h *EventsHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	var input events.EventInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	event, err := h.Events.Create(r.Context(), principal, input)
	metrics.RecordEvent("create", outcome(err))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	envelope.Success(w, http.StatusCreated, toEventResponse(*event), "")
}

func (h *EventsHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	var patch events.EventPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	event, err := h.Events.Update(r.Context(), principal, pathParam(r, "eventId"), patch)
	metrics.RecordEvent("update", outcome(err))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	envelope.Success(w, http.StatusOK, toEventResponse(*event), "")
}

func (h *EventsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	err := h.Events.Delete(r.Context(), principal, pathParam(r, "eventId"))
	metrics.RecordEvent("delete", outcome(err))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	envelope.Success(w, http.StatusOK, nil, msgEventDeleted)
}

// Join adds the caller, with the home country from their stored profile.
func (h *EventsHandler) Join(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	var homeCountry string
	if account, ok := middleware.AccountFromContext(r.Context()); ok {
		homeCountry = account.HomeCountry
	}

	event, err := h.Events.Join(r.Context(), principal, pathParam(r, "eventId"), homeCountry)
	metrics.RecordEvent("join", outcome(err))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	envelope.Success(w, http.StatusOK, toEventResponse(*event), msgAttendeeAdded)
}

func (h *EventsHandler) Leave(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	event, err := h.Events.Leave(r.Context(), principal, pathParam(r, "eventId"), pathParam(r, "attendeeUserId"))
	metrics.RecordEvent("leave", outcome(err))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	envelope.Success(w, http.StatusOK, toEventResponse(*event), msgAttendeeRemoved)
}

func (h *EventsHandler) principal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, users.ErrUnauthenticated, h.Env)
		return auth.Principal{}, false
	}
	return principal, true
}
