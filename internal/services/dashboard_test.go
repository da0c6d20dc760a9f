package services

import (
	"context"
	"testing"

	"servicehours-backend-go/internal/models"
)

func seedDashboard(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	ctx := context.Background()
	ana := mustStudent(t, s, "Ana")
	luis := mustStudent(t, s, "Luis")
	marta := mustStudent(t, s, "Marta")
	library := mustPlace(t, s, "Library")
	clinic := mustPlace(t, s, "Clinic")

	first := mustRecord(t, s, RecordInput{StudentID: ana, PlaceID: library, Hours: 2, Date: models.NewDate(2025, 3, 10)})
	mustRecord(t, s, RecordInput{StudentID: ana, PlaceID: clinic, Hours: 3, Date: models.NewDate(2025, 4, 2)})
	mustRecord(t, s, RecordInput{StudentID: luis, PlaceID: library, Hours: 1, Date: models.NewDate(2025, 8, 15), Term: 2})
	mustRecord(t, s, RecordInput{StudentID: marta, PlaceID: library, Hours: 5})
	if err := s.ValidateRecord(ctx, "company", first, "Company"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := s.SoftDeleteStudent(ctx, "admin", marta); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	return s
}

func TestSummaryAggregatesActiveRecords(t *testing.T) {
	s := seedDashboard(t)
	sum, err := s.Summary(context.Background(), SummaryFilter{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := SummaryTotals{Records: 3, TotalHours: 6, ValidatedHours: 2, Pending: 2, AverageHours: 2}
	if sum.Totals != want {
		t.Fatalf("totals: got %+v, want %+v", sum.Totals, want)
	}

	places := []PlaceHours{
		{Place: "Clinic", Records: 1, Total: 3, Average: 3},
		{Place: "Library", Records: 2, Total: 3, Average: 1.5},
	}
	if len(sum.ByPlace) != len(places) {
		t.Fatalf("by place: %+v", sum.ByPlace)
	}
	for i, p := range places {
		if sum.ByPlace[i] != p {
			t.Errorf("place %d: got %+v, want %+v", i, sum.ByPlace[i], p)
		}
	}

	months := []MonthHours{{"2025-03", 1, 2}, {"2025-04", 1, 3}, {"2025-08", 1, 1}}
	if len(sum.ByMonth) != len(months) {
		t.Fatalf("by month: %+v", sum.ByMonth)
	}
	for i, m := range months {
		if sum.ByMonth[i] != m {
			t.Errorf("month %d: got %+v, want %+v", i, sum.ByMonth[i], m)
		}
	}

	if len(sum.ByStudent) != 2 {
		t.Fatalf("by student: %+v", sum.ByStudent)
	}
	if got := sum.ByStudent[0]; got.Student != "Ana" || got.Total != 5 || got.Records != 2 || got.ValidatedPercent != 50 {
		t.Errorf("unexpected first student %+v", got)
	}
	if got := sum.ByStudent[1]; got.Student != "Luis" || got.ValidatedPercent != 0 {
		t.Errorf("unexpected second student %+v", got)
	}

	if len(sum.ByTerm) != 2 || sum.ByTerm[0] != (TermHours{Term: 1, Total: 5}) || sum.ByTerm[1] != (TermHours{Term: 2, Total: 1}) {
		t.Errorf("by term: %+v", sum.ByTerm)
	}
}

func TestSummaryFilters(t *testing.T) {
	s := seedDashboard(t)
	ctx := context.Background()
	cases := map[string]struct {
		filter  SummaryFilter
		records int
		hours   float64
	}{
		"second term":    {SummaryFilter{Terms: []int{2}}, 1, 1},
		"both terms":     {SummaryFilter{Terms: []int{1, 2}}, 3, 6},
		"validated only": {SummaryFilter{Status: "Validated"}, 1, 2},
		"pending only":   {SummaryFilter{Status: StatusPending}, 2, 4},
		"other year":     {SummaryFilter{Years: []int{2024}}, 0, 0},
		"year and term":  {SummaryFilter{Years: []int{2024, 2025}, Terms: []int{1}}, 2, 5},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sum, err := s.Summary(ctx, tc.filter)
			if err != nil {
				t.Fatalf("summary: %v", err)
			}
			if sum.Totals.Records != tc.records || sum.Totals.TotalHours != tc.hours {
				t.Fatalf("got %d records / %v hours, want %d / %v", sum.Totals.Records, sum.Totals.TotalHours, tc.records, tc.hours)
			}
			if sum.ByPlace == nil || sum.ByMonth == nil || sum.ByStudent == nil || sum.ByTerm == nil {
				t.Fatal("breakdowns must never be nil")
			}
		})
	}

	if _, err := s.Summary(ctx, SummaryFilter{Status: "approved"}); !IsKind(err, KindValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}
}
