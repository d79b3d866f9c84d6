package rmp

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/okian/profrate/internal/domain/model"
)

// searchRows caps the number of candidates requested per group.
const searchRows = 20

// solrSpecial escapes the characters the Lucene query parser treats as syntax.
var solrSpecial = strings.NewReplacer(
	`\`, `\\`, `+`, `\+`, `-`, `\-`, `!`, `\!`, `(`, `\(`, `)`, `\)`,
	`:`, `\:`, `^`, `\^`, `[`, `\[`, `]`, `\]`, `"`, `\"`, `{`, `\{`,
	`}`, `\}`, `~`, `\~`, `*`, `\*`, `?`, `\?`, `|`, `\|`, `&`, `\&`,
	`/`, `\/`,
)

// escapeQuery turns a free-form name into plain search terms. Boolean
// operator words are lowercased so they match as names.
func escapeQuery(name string) string {
	terms := strings.Fields(name)
	for i, t := range terms {
		switch t {
		case "AND", "OR", "NOT":
			t = strings.ToLower(t)
		}
		terms[i] = solrSpecial.Replace(t)
	}
	return strings.Join(terms, " ")
}

// Search returns professors matching name at the configured school, in the
// upstream relevance order.
func (c *Client) Search(ctx context.Context, name string) ([]model.SearchHit, error) {
	body, err := c.do(ctx, opSearch, func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(c.searchURL)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("q", escapeQuery(name)+" AND schoolid_s:"+c.schoolID)
		q.Set("defType", "edismax")
		q.Set("qf", "teacherfirstname_t^2000 teacherlastname_t^2000 teacherfullname_t^2000")
		q.Set("wt", "json")
		q.Set("group", "true")
		q.Set("group.field", "content_type_s")
		q.Set("group.limit", strconv.Itoa(searchRows))
		q.Set("rows", strconv.Itoa(searchRows))
		q.Set("fl", "id teacherfirstname_t teacherlastname_t teacherfullname_s teacherdepartment_s averageratingscore_rf")
		u.RawQuery = q.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	})
	if err != nil {
		return nil, err
	}
	return parseSearch(body)
}

// parseSearch reads the grouped Solr response. Hits of every group are
// returned in document order.
func parseSearch(body []byte) ([]model.SearchHit, error) {
	if !gjson.ValidBytes(body) {
		return nil, malformed(opSearch)
	}
	groups := gjson.GetBytes(body, "grouped.content_type_s.groups")
	if !groups.IsArray() {
		return nil, malformed(opSearch)
	}

	var hits []model.SearchHit
	for _, group := range groups.Array() {
		for _, doc := range group.Get("doclist.docs").Array() {
			hit := model.SearchHit{
				ID:         doc.Get("id").String(),
				FirstName:  doc.Get("teacherfirstname_t").String(),
				LastName:   doc.Get("teacherlastname_t").String(),
				FullName:   doc.Get("teacherfullname_s").String(),
				Department: doc.Get("teacherdepartment_s").String(),
			}
			if avg := doc.Get("averageratingscore_rf"); avg.Type == gjson.Number {
				v := avg.Float()
				hit.Score = &v
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}
