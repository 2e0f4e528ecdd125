package gateway

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/token"
)

// LoginPath is the password-grant endpoint.
const LoginPath = "/auth/login"

// Login exchanges an email and password for an access token using the
// OAuth2 password grant. It does not touch the current credential; the
// caller establishes the session with the returned token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", errors.NewValidationError("email and password are required", nil)
	}

	var transportErr error
	hc := &http.Client{
		Timeout: c.timeout,
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, uuid.NewString())
			resp, err := c.base.RoundTrip(r)
			if err != nil {
				transportErr = err
			}
			return resp, err
		}),
	}

	cfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.URL(LoginPath, nil),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	start := time.Now()
	tok, err := cfg.PasswordCredentialsToken(context.WithValue(ctx, oauth2.HTTPClient, hc), username, password)
	if err != nil {
		c.logger.Debug("login failed", "user", username, "duration", time.Since(start), "error", err)
		return "", loginError(ctx, err, transportErr)
	}

	c.logger.Debug("login succeeded", "user", username, "token", token.Fingerprint(tok.AccessToken), "duration", time.Since(start))
	return tok.AccessToken, nil
}

// loginError maps a password-grant failure. A 401 here means bad
// credentials, not an expired session, so no forced logout happens.
func loginError(ctx context.Context, err, transportErr error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if transportErr != nil {
		return errors.NewNetworkError(transportErr)
	}

	var re *oauth2.RetrieveError
	if !stderrors.As(err, &re) || re.Response == nil {
		return errors.Wrap(errors.ErrCodeAPIDecode, "login response did not contain an access token", err)
	}

	status := re.Response.StatusCode
	switch status {
	case http.StatusUnauthorized, http.StatusBadRequest:
		msg, _ := ParseDetail(re.Body, "")
		return errors.NewInvalidCredentialsError(msg)
	default:
		return responseError(status, re.Body)
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
