package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"servicehours-backend-go/internal/services"
)

// intList reads a repeated or comma separated integer query parameter.
func intList(values []string) ([]int, bool) {
	out := []int{}
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, false
			}
			out = append(out, n)
		}
	}
	return out, true
}

func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	years, ok := intList(q["year"])
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid year")
		return
	}
	terms, ok := intList(q["term"])
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid term")
		return
	}
	summary, err := s.Store.Summary(r.Context(), services.SummaryFilter{
		Years:  years,
		Terms:  terms,
		Status: q.Get("status"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}
