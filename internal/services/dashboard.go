package services

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

const (
	StatusAll       = "all"
	StatusValidated = "validated"
	StatusPending   = "pending"
)

// SummaryFilter narrows the dashboard to some years, terms and validation
// state. Empty slices do not filter.
type SummaryFilter struct {
	Years  []int
	Terms  []int
	Status string
}

type SummaryTotals struct {
	Records        int     `db:"records" json:"records"`
	TotalHours     float64 `db:"total_hours" json:"totalHours"`
	ValidatedHours float64 `db:"validated_hours" json:"validatedHours"`
	Pending        int     `db:"pending" json:"pending"`
	AverageHours   float64 `db:"-" json:"averageHours"`
}

type PlaceHours struct {
	Place   string  `db:"name" json:"place"`
	Records int     `db:"records" json:"records"`
	Total   float64 `db:"total" json:"total"`
	Average float64 `db:"average" json:"average"`
}

type MonthHours struct {
	Month   string  `db:"month" json:"month"`
	Records int     `db:"records" json:"records"`
	Total   float64 `db:"total" json:"total"`
}

type StudentHours struct {
	Student          string  `db:"name" json:"student"`
	Records          int     `db:"records" json:"records"`
	Total            float64 `db:"total" json:"total"`
	ValidatedRecords int     `db:"validated_records" json:"validatedRecords"`
	ValidatedPercent float64 `db:"-" json:"validatedPercent"`
}

type TermHours struct {
	Term  int     `db:"term" json:"term"`
	Total float64 `db:"total" json:"total"`
}

// Summary aggregates records of active students at active places.
type Summary struct {
	Totals    SummaryTotals  `json:"totals"`
	ByPlace   []PlaceHours   `json:"byPlace"`
	ByMonth   []MonthHours   `json:"byMonth"`
	ByStudent []StudentHours `json:"byStudent"`
	ByTerm    []TermHours    `json:"byTerm"`
}

const summaryFrom = `
FROM records r
JOIN students a ON a.id = r.student_id
JOIN places l ON l.id = r.place_id`

func (s *Store) Summary(ctx context.Context, filter SummaryFilter) (Summary, error) {
	where := []string{"a.active = TRUE", "l.active = TRUE"}
	args := []interface{}{}
	if len(filter.Years) > 0 {
		where = append(where, "r.year IN (?)")
		args = append(args, filter.Years)
	}
	if len(filter.Terms) > 0 {
		where = append(where, "r.term IN (?)")
		args = append(args, filter.Terms)
	}
	switch strings.ToLower(strings.TrimSpace(filter.Status)) {
	case "", StatusAll:
	case StatusValidated:
		where = append(where, "r.validated = TRUE")
	case StatusPending:
		where = append(where, "r.validated = FALSE")
	default:
		return Summary{}, ErrBadRequest("status must be one of all validated pending")
	}
	clause := summaryFrom + "\nWHERE " + strings.Join(where, " AND ")

	out := Summary{
		ByPlace:   []PlaceHours{},
		ByMonth:   []MonthHours{},
		ByStudent: []StudentHours{},
		ByTerm:    []TermHours{},
	}
	if err := s.summaryQuery(ctx, &out.Totals, true, `
SELECT COUNT(*) AS records,
       COALESCE(SUM(r.hours), 0) AS total_hours,
       COALESCE(SUM(CASE WHEN r.validated THEN r.hours ELSE 0 END), 0) AS validated_hours,
       COALESCE(SUM(CASE WHEN r.validated THEN 0 ELSE 1 END), 0) AS pending`+clause, args); err != nil {
		return Summary{}, err
	}
	if out.Totals.Records > 0 {
		out.Totals.AverageHours = out.Totals.TotalHours / float64(out.Totals.Records)
	}
	if err := s.summaryQuery(ctx, &out.ByPlace, false, `
SELECT l.name AS name, COUNT(*) AS records, SUM(r.hours) AS total, AVG(r.hours) AS average`+clause+`
GROUP BY l.id, l.name
ORDER BY total DESC, l.name`, args); err != nil {
		return Summary{}, err
	}
	if err := s.summaryQuery(ctx, &out.ByMonth, false, `
SELECT SUBSTR(r.date, 1, 7) AS month, COUNT(*) AS records, SUM(r.hours) AS total`+clause+`
GROUP BY SUBSTR(r.date, 1, 7)
ORDER BY month`, args); err != nil {
		return Summary{}, err
	}
	if err := s.summaryQuery(ctx, &out.ByStudent, false, `
SELECT a.name AS name, COUNT(*) AS records, SUM(r.hours) AS total,
       SUM(CASE WHEN r.validated THEN 1 ELSE 0 END) AS validated_records`+clause+`
GROUP BY a.id, a.name
ORDER BY total DESC, a.name`, args); err != nil {
		return Summary{}, err
	}
	for i := range out.ByStudent {
		row := &out.ByStudent[i]
		row.ValidatedPercent = float64(row.ValidatedRecords) * 100 / float64(row.Records)
	}
	if err := s.summaryQuery(ctx, &out.ByTerm, false, `
SELECT r.term AS term, SUM(r.hours) AS total`+clause+`
GROUP BY r.term
ORDER BY r.term`, args); err != nil {
		return Summary{}, err
	}
	return out, nil
}

// summaryQuery expands IN (?) lists and runs query into dest.
func (s *Store) summaryQuery(ctx context.Context, dest interface{}, single bool, query string, args []interface{}) error {
	expanded, expandedArgs, err := sqlx.In(query, args...)
	if err != nil {
		return WrapError(err, "build summary")
	}
	expanded = s.DB.Rebind(expanded)
	if single {
		err = s.DB.GetContext(ctx, dest, expanded, expandedArgs...)
	} else {
		err = s.DB.SelectContext(ctx, dest, expanded, expandedArgs...)
	}
	return WrapError(err, "summary")
}
