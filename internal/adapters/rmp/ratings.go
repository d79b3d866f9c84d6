package rmp

import (
	"bytes"
	"context"
	"encoding/base64"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/okian/profrate/internal/domain/model"
	"github.com/okian/profrate/pkg/logger"
)

const ratingsQuery = `query RatingsListQuery($count: Int!, $id: ID!, $courseFilter: String, $cursor: String) {
  node(id: $id) {
    ... on Teacher {
      ratings(first: $count, after: $cursor, courseFilter: $courseFilter) {
        edges {
          node {
            comment
            class
            grade
            attendanceMandatory
            helpfulRating
            clarityRating
            difficultyRating
            date
            thumbsUpTotal
            thumbsDownTotal
          }
        }
        pageInfo {
          hasNextPage
          endCursor
        }
      }
    }
  }
}`

// Date layouts seen in the ratings payload.
var dateLayouts = []string{
	"2006-01-02 15:04:05 -0700 MST",
	time.RFC3339,
}

// nodeID returns the GraphQL global id of a professor.
func nodeID(id uint32) string {
	return base64.StdEncoding.EncodeToString([]byte("Teacher-" + strconv.FormatUint(uint64(id), 10)))
}

// FetchRatings returns every rating of professor id, optionally restricted
// to one course, following pagination up to the configured page cap.
func (c *Client) FetchRatings(ctx context.Context, token string, id uint32, course string) ([]model.Rating, error) {
	var (
		ratings []model.Rating
		cursor  string
	)
	for page := 0; page < c.maxPages; page++ {
		payload, err := c.ratingsRequest(id, course, cursor)
		if err != nil {
			return nil, malformed(opRatings)
		}

		body, err := c.do(ctx, opRatings, func(ctx context.Context) (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
			req.Header.Set("Authorization", "Basic "+token)
			return req, nil
		})
		if err != nil {
			return nil, err
		}

		batch, next, more, err := parseRatings(body)
		if err != nil {
			return nil, err
		}
		ratings = append(ratings, batch...)

		if !more || next == "" {
			return ratings, nil
		}
		cursor = next
	}

	c.logger.Warn(ctx, "ratings truncated at page cap",
		logger.Uint32("rmp_id", id),
		logger.Int("max_pages", c.maxPages),
		logger.Int("ratings", len(ratings)),
	)
	return ratings, nil
}

func (c *Client) ratingsRequest(id uint32, course, cursor string) ([]byte, error) {
	payload, err := sjson.SetBytes(nil, "query", ratingsQuery)
	if err != nil {
		return nil, err
	}
	if payload, err = sjson.SetBytes(payload, "variables.id", nodeID(id)); err != nil {
		return nil, err
	}
	if payload, err = sjson.SetBytes(payload, "variables.count", c.pageSize); err != nil {
		return nil, err
	}
	if course = strings.TrimSpace(course); course != "" {
		if payload, err = sjson.SetBytes(payload, "variables.courseFilter", course); err != nil {
			return nil, err
		}
	}
	if cursor != "" {
		if payload, err = sjson.SetBytes(payload, "variables.cursor", cursor); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// parseRatings reads one ratings page and its pagination state.
func parseRatings(body []byte) (ratings []model.Rating, cursor string, more bool, err error) {
	if !gjson.ValidBytes(body) {
		return nil, "", false, malformed(opRatings)
	}
	if errs := gjson.GetBytes(body, "errors"); errs.IsArray() && len(errs.Array()) > 0 {
		return nil, "", false, malformed(opRatings)
	}

	conn := gjson.GetBytes(body, "data.node.ratings")
	edges := conn.Get("edges")
	if !edges.IsArray() {
		return nil, "", false, malformed(opRatings)
	}

	for _, edge := range edges.Array() {
		r, err := parseRating(edge.Get("node"))
		if err != nil {
			return nil, "", false, err
		}
		ratings = append(ratings, r)
	}

	return ratings, conn.Get("pageInfo.endCursor").String(), conn.Get("pageInfo.hasNextPage").Bool(), nil
}

func parseRating(node gjson.Result) (model.Rating, error) {
	if !node.IsObject() {
		return model.Rating{}, malformed(opRatings)
	}
	date, err := parseDate(node.Get("date").String())
	if err != nil {
		return model.Rating{}, malformed(opRatings)
	}
	return model.Rating{
		Helpful:    int(node.Get("helpfulRating").Int()),
		Clarity:    int(node.Get("clarityRating").Int()),
		Difficulty: int(node.Get("difficultyRating").Int()),
		Comment:    html.UnescapeString(node.Get("comment").String()),
		Class:      node.Get("class").String(),
		Grade:      node.Get("grade").String(),
		Attendance: parseAttendance(node.Get("attendanceMandatory").String()),
		Date:       date,
		ThumbsUp:   int(node.Get("thumbsUpTotal").Int()),
		ThumbsDown: int(node.Get("thumbsDownTotal").Int()),
	}, nil
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, err
}

func parseAttendance(s string) model.Attendance {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mandatory":
		return model.AttendanceMandatory
	case "non mandatory":
		return model.AttendanceOptional
	default:
		return model.AttendanceUnknown
	}
}
