package probe

import (
	"fmt"
	"strings"

	"github.com/okian/profrate/internal/domain/types"
)

// Verify fails when any name observed more than one distinct overview.
func Verify(results []Result) error {
	var bad []string
	for _, r := range results {
		if r.Mismatch > 0 {
			bad = append(bad, fmt.Sprintf("%s (%d/%d)", r.Name, r.Mismatch, r.Requests))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInconsistent, strings.Join(bad, ", "))
	}
	return nil
}

func sameOverview(a, b types.Overview) bool {
	return a.RMPID == b.RMPID &&
		sameScore(a.Quality, b.Quality) &&
		sameScore(a.QualityYr, b.QualityYr) &&
		a.FullName == b.FullName &&
		a.Department == b.Department
}

func sameScore(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
