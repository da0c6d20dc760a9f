package httpapi

import (
	"net/http"
	"strings"
	"time"

	"servicehours-backend-go/internal/models"
	"servicehours-backend-go/internal/services"
)

type ValidateRequest struct {
	Validator string `json:"validator"`
}

// recordFilter reads the listing filter from the query. Students only ever
// see their own records; a student account with no linked student sees none.
func recordFilter(w http.ResponseWriter, r *http.Request) (services.RecordFilter, bool, bool) {
	q := r.URL.Query()
	studentID, ok := optionalInt64(q.Get("studentId"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid studentId")
		return services.RecordFilter{}, false, false
	}
	year, ok := optionalInt(q.Get("year"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid year")
		return services.RecordFilter{}, false, false
	}
	term, ok := optionalInt(q.Get("term"))
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid term")
		return services.RecordFilter{}, false, false
	}
	filter := services.RecordFilter{
		PendingOnly:     parseBool(q.Get("pending")),
		StudentID:       studentID,
		Year:            year,
		Term:            term,
		IncludeInactive: parseBool(q.Get("includeInactive")),
	}
	sess := CurrentSession(r)
	if sess.Role == services.RoleStudent {
		if sess.StudentID == nil {
			return filter, true, true
		}
		filter.StudentID = sess.StudentID
	}
	return filter, false, true
}

func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	filter, empty, ok := recordFilter(w, r)
	if !ok {
		return
	}
	items := []models.RecordRow{}
	if !empty {
		var err error
		if items, err = s.Store.ListRecords(r.Context(), filter); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (s *Server) ExportRecords(w http.ResponseWriter, r *http.Request) {
	filter, empty, ok := recordFilter(w, r)
	if !ok {
		return
	}
	items := []models.RecordRow{}
	if !empty {
		var err error
		if items, err = s.Store.ListRecords(r.Context(), filter); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="records.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := services.WriteRecordsCSV(w, items); err != nil {
		logWriteError(r, err)
	}
}

func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req services.RecordInput
	if !decodeJSON(w, r, &req) {
		return
	}
	sess := CurrentSession(r)
	if sess.Role == services.RoleStudent {
		if sess.StudentID == nil {
			WriteError(w, http.StatusForbidden, "Account is not linked to a student")
			return
		}
		req.StudentID = *sess.StudentID
	}
	id, err := s.Store.InsertRecord(r.Context(), sess.Actor(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, createdResponse{ID: id})
}

func (s *Server) ValidateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req ValidateRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}
	sess := CurrentSession(r)
	name := strings.TrimSpace(req.Validator)
	if name == "" {
		name = sess.DisplayName
	}
	if name == "" {
		name = sess.Username
	}
	if err := s.Store.ValidateRecord(r.Context(), sess.Actor(), id, name); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) StudentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sess := CurrentSession(r)
	own := sess.Role == services.RoleStudent && sess.StudentID != nil && *sess.StudentID == id
	if !own && !sess.HasRole(services.RoleCompany, services.RoleDepartment, services.RoleAdmin, services.RoleFaculty) {
		WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}
	year, term := currentPeriod(time.Now())
	year = parseInt(r.URL.Query().Get("year"), year)
	term = parseInt(r.URL.Query().Get("term"), term)
	status, err := s.Store.StudentStatus(r.Context(), id, year, term)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// currentPeriod maps a date to its academic year and term: January to June
// is term 1, the rest of the year term 2.
func currentPeriod(now time.Time) (int, int) {
	if now.Month() <= time.June {
		return now.Year(), 1
	}
	return now.Year(), 2
}
