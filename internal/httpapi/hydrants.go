package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"hydrantmap/internal/auth"
	"hydrantmap/internal/hydrant"
)

func (s *Server) handleListHydrants(w http.ResponseWriter, r *http.Request) {
	hydrants, err := s.svc.ListHydrants()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hydrants": hydrants})
}

func (s *Server) handleGetHydrant(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.GetHydrant(mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleMarkerTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.svc.MarkerTypes()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": types})
}

func (s *Server) handleCreateHydrant(w http.ResponseWriter, r *http.Request) {
	var in hydrant.HydrantInput
	if err := decodeBody(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	h, err := s.svc.CreateHydrant(actor(r), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleUpdateHydrant(w http.ResponseWriter, r *http.Request) {
	var in hydrant.HydrantInput
	if err := decodeBody(r, &in); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	h, err := s.svc.UpdateHydrant(actor(r), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleDeleteHydrant(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteHydrant(actor(r), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	user, err := s.users.Verify(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Warn("login failed", "username", req.Username, "request_id", requestID(r))
			writeError(w, http.StatusUnauthorized, "auth_failed", "invalid username or password")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info("login", "username", user.Username, "request_id", requestID(r))
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expires,
		Username:  user.Username,
		Role:      user.Role,
	})
}
