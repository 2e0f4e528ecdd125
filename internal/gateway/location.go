package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

// Location resolves an endpoint that answers with a redirect, such as an
// OAuth consent URL, without following it. Endpoints that answer 2xx with
// {"authorization_url": ...} or {"url": ...} are accepted too.
func (c *Client) Location(ctx context.Context, path string) (string, error) {
	cred := c.Credential()
	req, err := http.NewRequestWithContext(withCredential(ctx, cred), http.MethodGet, c.URL(path, nil), nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAPI, "failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	hc := *c.http
	hc.CheckRedirect = func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }

	resp, err := hc.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if loc := resp.Header.Get("Location"); loc != "" {
			return loc, nil
		}
	}
	if err := c.check(ctx, resp, cred); err != nil {
		return "", err
	}

	var body struct {
		AuthorizationURL string `json:"authorization_url"`
		URL              string `json:"url"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(data, &body); err == nil {
		if body.AuthorizationURL != "" {
			return body.AuthorizationURL, nil
		}
		if body.URL != "" {
			return body.URL, nil
		}
	}
	return "", errors.New(errors.ErrCodeAPIDecode, "response did not contain a redirect location").
		WithStatus(resp.StatusCode)
}
