package models

import "time"

type Student struct {
	ID      int64  `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Program string `db:"program" json:"program"`
	Active  bool   `db:"active" json:"active"`
}

type Place struct {
	ID     int64  `db:"id" json:"id"`
	Name   string `db:"name" json:"name"`
	Active bool   `db:"active" json:"active"`
}

// Record is one logged service-hour activity.
type Record struct {
	ID        int64   `db:"id" json:"id"`
	StudentID int64   `db:"student_id" json:"studentId"`
	PlaceID   int64   `db:"place_id" json:"placeId"`
	Activity  string  `db:"activity" json:"activity"`
	Date      Date    `db:"date" json:"date"`
	Hours     float64 `db:"hours" json:"hours"`
	Year      int     `db:"year" json:"year"`
	Term      int     `db:"term" json:"term"`
	Validated bool    `db:"validated" json:"validated"`
	Validator *string `db:"validator" json:"validator"`
}

// RecordRow is a Record joined with the display names of its student and place.
type RecordRow struct {
	Record
	StudentName string `db:"student_name" json:"student"`
	PlaceName   string `db:"place_name" json:"place"`
}

type User struct {
	ID         int64  `db:"id"`
	Username   string `db:"username"`
	Role       string `db:"role"`
	StudentID  *int64 `db:"student_id"`
	Salt       string `db:"salt"`
	Iterations int    `db:"iterations"`
	Hash       string `db:"hash"`
}

type AdminCode struct {
	ID   int64  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
}

type AuditEntry struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"ts"`
	Actor      *string   `json:"actor"`
	Action     string    `json:"action"`
	Table      string    `json:"table"`
	EntityID   *int64    `json:"entityId"`
	BeforeJSON *string   `json:"before"`
	AfterJSON  *string   `json:"after"`
}
