package gateway

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type credentialKey struct{}

func withCredential(ctx context.Context, cred string) context.Context {
	return context.WithValue(ctx, credentialKey{}, cred)
}

// authTransport stamps requests with the bearer credential and a request id.
type authTransport struct {
	client *Client
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cred, pinned := req.Context().Value(credentialKey{}).(string)
	if !pinned {
		cred = t.client.Credential()
	}

	r := req.Clone(req.Context())
	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if t.client.userAgent != "" && r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", t.client.userAgent)
	}
	if cred != "" {
		(&oauth2.Token{AccessToken: cred, TokenType: "Bearer"}).SetAuthHeader(r)
	} else {
		r.Header.Del("Authorization")
	}

	return t.base.RoundTrip(r)
}
