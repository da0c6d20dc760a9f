package httpapi

import (
	"context"
	"net/http"

	"servicehours-backend-go/internal/services"
)

type createdResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) ListStudents(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.ListStudents(r.Context(), parseBool(r.URL.Query().Get("includeInactive")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req services.StudentInput
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := s.Store.InsertStudent(r.Context(), CurrentSession(r).Actor(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, s.Store.SoftDeleteStudent)
}

func (s *Server) RestoreStudent(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, s.Store.RestoreStudent)
}

func (s *Server) ListPlaces(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.ListPlaces(r.Context(), parseBool(r.URL.Query().Get("includeInactive")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) CreatePlace(w http.ResponseWriter, r *http.Request) {
	var req services.PlaceInput
	if !decodeJSON(w, r, &req) {
		return
	}
	id, err := s.Store.InsertPlace(r.Context(), CurrentSession(r).Actor(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) DeletePlace(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, s.Store.SoftDeletePlace)
}

func (s *Server) RestorePlace(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, s.Store.RestorePlace)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor string, id int64) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), CurrentSession(r).Actor(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
