package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/opinions/pkg/opinion"
	"github.com/vango-dev/opinions/pkg/signup"
	"github.com/vango-dev/opinions/pkg/store"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Errors []string `json:"errors"`
}

// AccountResponse is the body of a successful signup. It never carries the
// password hash.
type AccountResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListOpinions(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if list == nil {
		list = []opinion.Opinion{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var d opinion.Draft
	if !s.decode(w, r, &d) {
		return
	}
	if errs := opinion.ValidateDraft(d); len(errs) > 0 {
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Errors: errs})
		return
	}

	op, err := s.store.CreateOpinion(r.Context(), d)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.hub.Broadcast(opinion.Event{Type: opinion.EventCreated, Opinion: op})
	s.writeJSON(w, http.StatusCreated, op)
}

func (s *Server) handleVote(delta int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		op, err := s.store.Vote(r.Context(), id, delta)
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		s.hub.Broadcast(opinion.Event{Type: opinion.EventVoted, Opinion: op})
		s.writeJSON(w, http.StatusOK, op)
	}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in signup.Input
	if !s.decode(w, r, &in) {
		return
	}
	if errs := signup.Validate(in); len(errs) > 0 {
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Errors: errs})
		return
	}

	acct, err := s.store.CreateAccount(r.Context(), in)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	s.logger.Info("account created", "account", acct.ID, "role", acct.Role)
	s.writeJSON(w, http.StatusCreated, AccountResponse{
		ID:        acct.ID,
		Email:     acct.Email,
		FirstName: acct.FirstName,
		LastName:  acct.LastName,
		Role:      acct.Role,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Errors: []string{"Invalid request body."}})
		return false
	}
	return true
}

// storeError maps store errors to statuses. Unexpected errors are logged
// with their cause and answered with a generic message.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Errors: []string{"Opinion not found."}})
	case errors.Is(err, store.ErrConflict):
		s.writeJSON(w, http.StatusConflict, ErrorResponse{Errors: []string{"This email is already registered."}})
	case errors.Is(err, store.ErrClosed):
		s.writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Errors: []string{"Service unavailable."}})
	default:
		s.logger.Error("store error", "method", r.Method, "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Errors: []string{"Internal error."}})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}
