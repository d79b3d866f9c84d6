package rmp

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/tidwall/gjson"
)

// tokenPattern captures the GraphQL auth value from the JSON environment
// object the site inlines into its landing page.
var tokenPattern = regexp.MustCompile(`"REACT_APP_GRAPHQL_AUTH"\s*:\s*("(?:[^"\\]|\\.)*")`)

// FetchToken scrapes the GraphQL authorization token from the site.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	body, err := c.do(ctx, opToken, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tokenPageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "text/html")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	return parseToken(body)
}

func parseToken(page []byte) (string, error) {
	m := tokenPattern.FindSubmatch(page)
	if m == nil {
		return "", fmt.Errorf("%w: token not found in page", ErrUpstream)
	}
	// The capture is a JSON string literal; gjson decodes its escapes.
	token := gjson.ParseBytes(m[1]).String()
	if token == "" {
		return "", malformed(opToken)
	}
	return token, nil
}
