package handlers

import (
	"net/http"

	"github.com/beemailley/final-project-backend-bm/internal/api/envelope"
	"github.com/beemailley/final-project-backend-bm/internal/domain/users"
	"github.com/beemailley/final-project-backend-bm/internal/metrics"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	Users *users.Service
	Env   string
}

func NewAuthHandler(service *users.Service, env string) *AuthHandler {
	return &AuthHandler{Users: service, Env: env}
}

type registerRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	EmailAddress string `json:"emailAddress"`
	profileFields
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// credentialsResponse is the only place an access token is ever serialized.
type credentialsResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}
	profile, err := req.profileFields.toProfile()
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	account, err := h.Users.Register(r.Context(), users.RegisterParams{
		Username:     req.Username,
		Password:     req.Password,
		EmailAddress: req.EmailAddress,
		Profile:      profile,
	})
	metrics.RecordAuth("register", outcome(err))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	envelope.Success(w, http.StatusCreated, credentialsResponse{
		ID:          account.ID,
		Username:    account.Username,
		AccessToken: account.AccessToken,
	}, "")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err, h.Env)
		return
	}

	account, err := h.Users.Login(r.Context(), req.Username, req.Password)
	metrics.RecordAuth("login", outcome(err))
	if err != nil {
		writeError(w, r, err, h.Env)
		return
	}

	envelope.Success(w, http.StatusOK, credentialsResponse{
		ID:          account.ID,
		Username:    account.Username,
		AccessToken: account.AccessToken,
	}, "")
}
