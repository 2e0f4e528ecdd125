package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

func newTestClient(t *testing.T, h http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8000/api", "://bad"} {
		_, err := New(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.HasCode(err, errors.ErrCodeConfigInvalid))
	}
}

func TestURL(t *testing.T) {
	c, err := New("http://example.com/api/")
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/api/clients/", c.URL("/clients/", nil))
	assert.Equal(t, "http://example.com/api/time-entries/filter?status=draft",
		c.URL("time-entries/filter", url.Values{"status": {"draft"}}))
	assert.Equal(t, "http://example.com/api", c.BaseURL())
}

func TestCredentialAttachment(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
		ids  []string
	)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		ids = append(ids, r.Header.Get(RequestIDHeader))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))

	ctx := context.Background()
	var out []any

	require.NoError(t, c.Get(ctx, "/clients/", nil, &out))

	c.SetCredential("abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", c.Credential())
	require.NoError(t, c.Get(ctx, "/clients/", nil, &out))

	c.ClearCredential()
	assert.Empty(t, c.Credential())
	require.NoError(t, c.Get(ctx, "/clients/", nil, &out))

	require.Len(t, seen, 3)
	assert.Empty(t, seen[0], "no credential means no header")
	assert.Equal(t, "Bearer abc.def.ghi", seen[1])
	assert.Empty(t, seen[2], "logout removes the header for the very next call")

	for _, id := range ids {
		assert.Len(t, id, 36)
	}
	assert.NotEqual(t, ids[0], ids[1])
}

func TestHTTPClientUsesCurrentCredential(t *testing.T) {
	var got string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	c.SetCredential("tok")

	resp, err := c.HTTPClient().Get(c.URL("/google/auth", nil))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer tok", got)
}

func TestDo_JSONRoundTrip(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in["id"] = 9
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	}))

	var out struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, c.Post(context.Background(), "/clients/", map[string]string{"name": "Acme"}, &out))
	assert.Equal(t, 9, out.ID)
	assert.Equal(t, "Acme", out.Name)
}

func TestDo_NoContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	var out map[string]any
	require.NoError(t, c.Delete(context.Background(), "/clients/1"))
	require.NoError(t, c.Get(context.Background(), "/clients/1", nil, &out))
	assert.Nil(t, out)
}

func TestDo_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   errors.ErrorCode
		msg    string
	}{
		{"validation array", 422, `{"detail":[{"loc":["body","hours"],"msg":"field required","type":"missing"}]}`, errors.ErrCodeValidation, "field required"},
		{"not found", 404, `{"detail":"Time entry not found"}`, errors.ErrCodeAPINotFound, "Time entry not found"},
		{"server error", 500, `oops`, errors.ErrCodeAPI, "Internal Server Error"},
		{"bad request", 400, `{"detail":"Contract number already exists"}`, errors.ErrCodeAPI, "Contract number already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			err := c.Get(context.Background(), "/x", nil, nil)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.msg, e.Message)
			assert.Equal(t, tt.status, e.Status)
		})
	}
}

func TestDo_ValidationFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		_, _ = io.WriteString(w, `{"detail":[{"loc":["body","hours"],"msg":"must be positive"},{"loc":["body","date"],"msg":"invalid date"}]}`)
	}))

	err := c.Put(context.Background(), "/time-entries/1", map[string]any{"hours": -1}, nil)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Len(t, e.Fields, 2)
	assert.Equal(t, "hours", e.Fields[0].Field())
	assert.Equal(t, "date", e.Fields[1].Field())
	assert.Equal(t, "must be positive, invalid date", e.Message)
}

func TestDo_AuthRejectedInvokesHandler(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
				_, _ = io.WriteString(w, `{"detail":"Could not validate credentials"}`)
			}))
			c.SetCredential("expired")

			var calls atomic.Int32
			var gotStatus int
			c.OnAuthRejected(func(ctx context.Context, s int) {
				calls.Add(1)
				gotStatus = s
			})

			err := c.Get(context.Background(), "/time-entries/", nil, nil)
			require.Error(t, err)
			assert.True(t, errors.IsAuthRejected(err))
			assert.Equal(t, int32(1), calls.Load())
			assert.Equal(t, status, gotStatus)
		})
	}
}

func TestDo_ForceLogoutStatusesOption(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"detail":"Only administrators can recalculate rates"}`)
	}), WithForceLogoutStatuses(http.StatusUnauthorized))

	called := false
	c.OnAuthRejected(func(context.Context, int) { called = true })

	err := c.Post(context.Background(), "/time-entries/recalculate-rates", nil, nil)
	require.Error(t, err)
	assert.False(t, called)
	assert.False(t, errors.IsAuthRejected(err))
	assert.Contains(t, err.Error(), "Only administrators")
}

func TestDo_StaleRejectionDoesNotForceLogout(t *testing.T) {
	arrived := make(chan struct{})
	release := make(chan struct{})
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(arrived)
		<-release
		w.WriteHeader(http.StatusUnauthorized)
	}))
	c.SetCredential("old")

	called := false
	c.OnAuthRejected(func(context.Context, int) { called = true })

	done := make(chan error, 1)
	go func() { done <- c.Get(context.Background(), "/clients/", nil, nil) }()

	// A new login lands while the old request is in flight.
	<-arrived
	c.SetCredential("new")
	close(release)

	err := <-done
	assert.True(t, errors.IsAuthRejected(err))
	assert.False(t, called, "rejection of a replaced credential must not log out the new session")
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := New(addr)
	require.NoError(t, err)

	err = c.Get(context.Background(), "/clients/", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
}

func TestDo_ContextCanceled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Get(ctx, "/clients/", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDo_DecodeError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id": "not a number"}`)
	}))
	var out struct {
		ID int `json:"id"`
	}
	err := c.Get(context.Background(), "/clients/1", nil, &out)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAPIDecode))
}

func TestDownload(t *testing.T) {
	payload := []byte("PK\x03\x04fake-xlsx")
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time-entries/report", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_date"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		_, _ = w.Write(payload)
	}))

	var buf bytes.Buffer
	n, err := c.Download(context.Background(), "/time-entries/report", url.Values{"start_date": {"2024-01-01"}}, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), n)
	assert.Equal(t, payload, buf.Bytes())
}

func TestLocation(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/google/auth":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			http.Redirect(w, r, "https://accounts.google.com/o/oauth2/auth?client_id=x", http.StatusTemporaryRedirect)
		case "/auth/google/authorize":
			_, _ = io.WriteString(w, `{"authorization_url":"https://accounts.google.com/consent"}`)
		case "/empty":
			_, _ = io.WriteString(w, `{}`)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	c.SetCredential("tok")

	loc, err := c.Location(context.Background(), "/google/auth")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.google.com/o/oauth2/auth?client_id=x", loc)

	loc, err = c.Location(context.Background(), "/auth/google/authorize")
	require.NoError(t, err)
	assert.Equal(t, "https://accounts.google.com/consent", loc)

	_, err = c.Location(context.Background(), "/empty")
	assert.True(t, errors.HasCode(err, errors.ErrCodeAPIDecode))

	_, err = c.Location(context.Background(), "/other")
	assert.True(t, errors.IsAuthRejected(err))
}
