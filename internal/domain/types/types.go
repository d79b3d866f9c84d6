// Package types contains the JSON shapes served by the HTTP API.
package types

import (
	"time"

	"github.com/okian/profrate/internal/domain/model"
)

// ErrorBody is the payload returned when the review site could not serve a
// request.
type ErrorBody struct {
	Error string `json:"error"`
}

// UpstreamError is the single error payload of the professor routes.
var UpstreamError = ErrorBody{Error: "RMP"}

// Version is the payload of GET /version.
type Version struct {
	Version string `json:"version"`
}

// Token is the payload of GET /internal/rmp_graphql_token.
type Token struct {
	Token string `json:"token"`
}

// Candidate is one entry of a professor search.
type Candidate struct {
	RMPID      uint32   `json:"rmp_id"`
	Score      *float64 `json:"score"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	FullName   string   `json:"full_name"`
	Department string   `json:"department"`
}

// Overview is the payload of GET /r0/professor/{name}/overview.
type Overview struct {
	RMPID      uint32   `json:"rmp_id"`
	Quality    *float64 `json:"quality"`
	QualityYr  *float64 `json:"quality_yr"`
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	FullName   string   `json:"full_name"`
	Department string   `json:"department"`
}

// Comment is one entry of the comment listings.
type Comment struct {
	Class               string    `json:"class"`
	Comment             string    `json:"comment"`
	Grade               string    `json:"grade"`
	AttendanceMandatory *bool     `json:"attendance_mandatory"`
	Quality             float64   `json:"quality"`
	Difficulty          float64   `json:"difficulty"`
	Date                time.Time `json:"date"`
}

// NewCandidate converts a professor snapshot to its search shape.
func NewCandidate(p model.Professor) Candidate {
	return Candidate{
		RMPID:      p.RMPID,
		Score:      p.Average,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		FullName:   p.FullName,
		Department: p.Department,
	}
}

// NewCandidates converts a ranked list of snapshots.
func NewCandidates(ps []model.Professor) []Candidate {
	out := make([]Candidate, 0, len(ps))
	for _, p := range ps {
		out = append(out, NewCandidate(p))
	}
	return out
}

// NewOverview converts a scored professor snapshot.
func NewOverview(p model.Professor) Overview {
	o := Overview{
		RMPID:      p.RMPID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		FullName:   p.FullName,
		Department: p.Department,
	}
	if p.Score != nil {
		o.Quality = p.Score.Quality
		o.QualityYr = p.Score.QualityYear
	}
	return o
}

// NewComments converts ratings to comments. The result is never nil so it
// encodes as an empty JSON array.
func NewComments(ratings []model.Rating) []Comment {
	out := make([]Comment, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, Comment{
			Class:               r.Class,
			Comment:             r.Comment,
			Grade:               r.Grade,
			AttendanceMandatory: r.Attendance.Mandatory(),
			Quality:             r.Quality(),
			Difficulty:          float64(r.Difficulty),
			Date:                r.Date.UTC(),
		})
	}
	return out
}
