package probe

import (
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Render writes one row per probed name.
func Render(w io.Writer, results []Result) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "RMP ID", "Quality", "Quality (yr)", "Comments", "Requests", "Failures", "Mismatches", "Avg latency"})
	table.SetAutoFormatHeaders(false)
	table.SetBorder(false)

	for _, r := range results {
		id, quality, qualityYr := "-", "-", "-"
		switch {
		case r.Overview != nil:
			id = strconv.FormatUint(uint64(r.Overview.RMPID), 10)
			quality = formatScore(r.Overview.Quality)
			qualityYr = formatScore(r.Overview.QualityYr)
		case r.NotFound:
			id = "not found"
		}
		table.Append([]string{
			r.Name,
			id,
			quality,
			qualityYr,
			strconv.Itoa(r.Comments),
			strconv.Itoa(r.Requests),
			strconv.Itoa(r.Failures),
			strconv.Itoa(r.Mismatch),
			r.AvgLatency().Round(time.Microsecond).String(),
		})
	}
	table.Render()
	return nil
}

func formatScore(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}
