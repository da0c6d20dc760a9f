package services

import (
	"encoding/csv"
	"io"
	"strconv"

	"servicehours-backend-go/internal/models"
)

var recordCSVHeader = []string{"id", "student", "place", "activity", "date", "hours", "year", "term", "validated", "validator"}

// WriteRecordsCSV writes rows as UTF-8 CSV with a byte-order mark so
// spreadsheet tools detect the encoding. Foreign-key columns are left out.
func WriteRecordsCSV(w io.Writer, rows []models.RecordRow) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(recordCSVHeader); err != nil {
		return err
	}
	for _, row := range rows {
		validator := ""
		if row.Validator != nil {
			validator = *row.Validator
		}
		if err := cw.Write([]string{
			strconv.FormatInt(row.ID, 10),
			row.StudentName,
			row.PlaceName,
			row.Activity,
			row.Date.String(),
			strconv.FormatFloat(row.Hours, 'f', -1, 64),
			strconv.Itoa(row.Year),
			strconv.Itoa(row.Term),
			strconv.FormatBool(row.Validated),
			validator,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
