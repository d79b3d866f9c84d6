package model

import (
	"strconv"
	"strings"
)

// SearchHit is one candidate returned by the upstream name search,
// in relevance order.
type SearchHit struct {
	ID         string   // namespaced id, e.g. "teacher:42"
	FirstName  string
	LastName   string
	FullName   string
	Department string
	Score      *float64 // upstream average rating, nil when absent
}

// Score holds the derived quality values for a professor. A nil field
// means the supporting weight was too small to publish, not zero quality.
type Score struct {
	Quality     *float64 // all-time window
	QualityYear *float64 // one-year window
}

// Professor is an immutable snapshot of a cached professor record.
type Professor struct {
	RMPID      uint32
	FirstName  string
	LastName   string
	FullName   string
	Department string
	Average    *float64 // upstream average from search
	Score      *Score   // nil until computed
}

// Scored reports whether the derived score has been computed.
func (p Professor) Scored() bool {
	return p.Score != nil
}

// teacherIDPrefix namespaces professor ids in search results.
const teacherIDPrefix = "teacher:"

// RMPID parses the numeric id out of the namespaced search id.
// ok is false when the id is not of the form "teacher:<digits>".
func (h SearchHit) RMPID() (id uint32, ok bool) {
	digits, found := strings.CutPrefix(h.ID, teacherIDPrefix)
	if !found || digits == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
