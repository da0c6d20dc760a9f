package httpapi

import (
	"net/http"
	"strings"
	"time"

	"servicehours-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type AdminCodeRequest struct {
	Code string `json:"code"`
}

func (s *Server) ListAdminCodes(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.ListAdminCodes(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) AddAdminCode(w http.ResponseWriter, r *http.Request) {
	var req AdminCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	code, added, err := s.Resolver.AddAdminCode(r.Context(), CurrentSession(r), req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	WriteJSON(w, status, map[string]interface{}{"code": code, "added": added})
}

func (s *Server) RemoveAdminCode(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Resolver.RemoveAdminCode(r.Context(), CurrentSession(r), chi.URLParam(r, "code")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.Store.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items := make([]services.UserDTO, 0, len(users))
	for _, user := range users {
		items = append(items, services.ToUserDTO(user))
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req services.UserInput
	if !decodeJSON(w, r, &req) {
		return
	}
	user, err := s.Store.CreateUser(r.Context(), CurrentSession(r).Actor(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, services.ToUserDTO(user))
}

func (s *Server) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entityID, ok := optionalInt64(q.Get("entityId"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid entityId")
		return
	}
	filter := services.AuditFilter{
		Table:    q.Get("table"),
		EntityID: entityID,
		Limit:    parseInt(q.Get("limit"), 500),
	}
	if filter.Limit <= 0 {
		filter.Limit = 500
	}
	if filter.Limit > 5000 {
		filter.Limit = 5000
	}
	for key, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(q.Get(key))
		if raw == "" {
			continue
		}
		value, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid "+key)
			return
		}
		*dst = &value
	}
	items, err := s.Store.ListAudit(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	sample, err := s.Store.CaptureHealth(r.Context(), s.DataDir)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, sample)
}

// AuditSocket streams committed audit entries to an admin. Browsers cannot
// set headers on websocket requests, so the token travels in the query.
func (s *Server) AuditSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	sess, err := s.Tokens.ParseSession(token)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	admin, err := s.Resolver.IsAdmin(r.Context(), sess)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !admin {
		WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}
	if s.Store.Hub == nil {
		WriteError(w, http.StatusServiceUnavailable, "Audit feed is not running")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.Store.Hub.Add(conn)
	defer func() {
		s.Store.Hub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
