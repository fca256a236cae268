package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/api/envelope"
	"github.com/beemailley/final-project-backend-bm/internal/auth"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/validation"
)

const birthdayLayout = "2006-01-02"

type UsersHandler struct {
	Users *users.Service
	Env   string
}

func NewUsersHandler(service *users.Service, env string) *UsersHandler {
	return &UsersHandler{Users: service, Env: env}
}

// profileFields is shared by the register and update bodies.
type profileFields struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Gender      string `json:"gender"`
	Birthday    string `json:"birthday"`
	Interests   string `json:"interests"`
	CurrentCity string `json:"currentCity"`
	HomeCountry string `json:"homeCountry"`
	Languages   string `json:"languages"`
}

func (p profileFields) birthday() (*time.Time, error) {
	if p.Birthday == "" {
		return nil, nil
	}
	t, err := time.Parse(birthdayLayout, p.Birthday)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", users.ErrValidation, validation.Errors{{
			Field:   "birthday",
			Message: "must be a date in YYYY-MM-DD format",
		}})
	}
	return &t, nil
}

func (p profileFields) toProfile() (users.Profile, error) {
	birthday, err := p.birthday()
	if err != nil {
		return users.Profile{}, err
	}
	return users.Profile{
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Gender:      p.Gender,
		Birthday:    birthday,
		Interests:   p.Interests,
		CurrentCity: p.CurrentCity,
		HomeCountry: p.HomeCountry,
		Languages:   p.Languages,
	}, nil
}

type updateProfileRequest struct {
	EmailAddress string `json:"emailAddress"`
	profileFields
}

// userResponse is the public profile. Password hashes and access tokens are
// never part of it.
type userResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	EmailAddress string `json:"emailAddress,omitempty"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Gender       string `json:"gender"`
	Birthday     string `json:"birthday,omitempty"`
	Interests    string `json:"interests"`
	CurrentCity  string `json:"currentCity"`
	HomeCountry  string `json:"homeCountry"`
	Languages    string `json:"languages"`
	MemberSince  string `json:"memberSince"`
}

func toUserResponse(a users.Account) userResponse {
	resp := userResponse{
		ID:           a.ID,
		Username:     a.Username,
		EmailAddress: a.EmailAddress,
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Gender:       a.Gender,
		Interests:    a.Interests,
		CurrentCity:  a.CurrentCity,
		HomeCountry:  a.HomeCountry,
		Languages:    a.Languages,
		MemberSince:  a.MemberSince.UTC().Format(time.RFC3339),
	}
	if a.Birthday != nil {
		resp.Birthday = a.Birthday.Format(birthdayLayout)
	}
	return resp
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Users.List(r.Context())
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	out := make([]userResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toUserResponse(a))
	}
	envelope.Success(w, http.StatusOK, out, "")
}

func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.Users.GetByUsername(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	envelope.Success(w, http.StatusOK, toUserResponse(*account), "")
}

func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, users.ErrUnauthenticated, h.Env)
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}
	birthday, err := req.birthday()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	updated, err := h.Users.UpdateProfile(r.Context(), principal, pathParam(r, "username"), users.ProfilePatch{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		EmailAddress: req.EmailAddress,
		Gender:       req.Gender,
		Birthday:     birthday,
		Interests:    req.Interests,
		CurrentCity:  req.CurrentCity,
		HomeCountry:  req.HomeCountry,
		Languages:    req.Languages,
	})
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}
	envelope.Success(w, http.StatusOK, toUserResponse(*updated), "")
}
