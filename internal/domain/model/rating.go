// Package model contains domain models passed between layers.
package model

import "time"

// Attendance is the tri-state attendance flag attached to a rating.
type Attendance int

// Attendance values. The zero value means the reviewer did not say.
const (
	AttendanceUnknown Attendance = iota
	AttendanceMandatory
	AttendanceOptional
)

// Mandatory reports the flag as an optional bool: nil when unknown.
func (a Attendance) Mandatory() *bool {
	switch a {
	case AttendanceMandatory:
		v := true
		return &v
	case AttendanceOptional:
		v := false
		return &v
	default:
		return nil
	}
}

// String implements fmt.Stringer.
func (a Attendance) String() string {
	switch a {
	case AttendanceMandatory:
		return "mandatory"
	case AttendanceOptional:
		return "non mandatory"
	default:
		return "unknown"
	}
}

// Rating is one review record fetched from the review site.
// Ratings are immutable once fetched and are never cached individually.
type Rating struct {
	Helpful    int        // helpfulness, 1-5
	Clarity    int        // clarity, 1-5
	Difficulty int        // difficulty, 1-5
	Comment    string     // free text, HTML entities already decoded
	Class      string     // course code as typed by the reviewer
	Grade      string     // letter grade, may be empty
	Attendance Attendance // tri-state attendance flag
	Date       time.Time  // UTC, second precision
	ThumbsUp   int
	ThumbsDown int
}

// Quality is the per-rating quality: the mean of helpfulness and clarity.
func (r Rating) Quality() float64 {
	return float64(r.Helpful+r.Clarity) / 2
}
