package apicheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/gateway"
)

const document = `openapi: 3.0.0
info:
  title: LegalTime API
  version: 0.1.0
paths:
  /auth/login:
    post:
      responses:
        '200':
          description: token
  /clients/:
    get:
      responses:
        '200':
          description: list
  /time-entries/pending:
    get:
      responses:
        '200':
          description: pending
  /time-entries/{entry_id}:
    get:
      parameters:
        - name: entry_id
          in: path
          required: true
          schema:
            type: integer
      responses:
        '200':
          description: entry
  /time-entries/{entry_id}/approve:
    put:
      parameters:
        - name: entry_id
          in: path
          required: true
          schema:
            type: integer
      responses:
        '200':
          description: approved
`

func load(t *testing.T) *Checker {
	t.Helper()
	c, err := Load([]byte(document), "test.yaml")
	require.NoError(t, err)
	return c
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load([]byte("{not json"), "broken.json")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeAPIContract))
}

func TestCheck(t *testing.T) {
	c := load(t)
	assert.Equal(t, "LegalTime API 0.1.0", c.Title())

	tests := []struct {
		name     string
		endpoint Endpoint
		code     string
	}{
		{"exact path", Endpoint{http.MethodPost, "/auth/login"}, ""},
		{"trailing slash ignored", Endpoint{http.MethodGet, "/clients"}, ""},
		{"param names may differ", Endpoint{http.MethodGet, "/time-entries/{id}"}, ""},
		{"literal wins over param", Endpoint{http.MethodGet, "/time-entries/pending"}, ""},
		{"literal does not match param", Endpoint{http.MethodGet, "/time-entries/filter"}, CodeMissingPath},
		{"wrong method", Endpoint{http.MethodPatch, "/time-entries/{id}/approve"}, CodeMissingMethod},
		{"unknown path", Endpoint{http.MethodGet, "/rates/"}, CodeMissingPath},
		{"unusual method", Endpoint{"LINK", "/clients/"}, CodeMissingMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := c.Check([]Endpoint{tt.endpoint})
			if tt.code == "" {
				assert.Empty(t, findings)
				return
			}
			require.Len(t, findings, 1)
			assert.Equal(t, tt.code, findings[0].Code)
			assert.Equal(t, "error", findings[0].Severity)
			assert.Equal(t, tt.endpoint.String(), findings[0].Endpoint)
		})
	}
}

func TestCheck_RequiredAgainstPartialDocument(t *testing.T) {
	findings := load(t).Check(Required())
	assert.True(t, HasErrors(findings))

	missing := map[string]bool{}
	for _, f := range findings {
		missing[f.Endpoint] = true
	}
	assert.False(t, missing["POST /auth/login"])
	assert.False(t, missing["GET /time-entries/{id}"])
	assert.True(t, missing["GET /rates/"])
	assert.True(t, missing["PATCH /time-entries/{id}/approve"])
}

func TestCheck_InvalidDocumentIsWarning(t *testing.T) {
	c, err := Load([]byte(`{"openapi":"3.0.0","info":{"title":"x","version":"1"},"paths":{"/clients/":{"get":{}}}}`), "inline")
	require.NoError(t, err)

	findings := c.Check(nil)
	require.Len(t, findings, 1)
	assert.Equal(t, CodeInvalidSpec, findings[0].Code)
	assert.False(t, HasErrors(findings))
}

func TestSummary(t *testing.T) {
	summary := load(t).Summary()
	assert.Equal(t, []string{"POST"}, summary["/auth/login"])
	assert.Equal(t, []string{"PUT"}, summary["/time-entries/{entry_id}/approve"])
	assert.Len(t, summary, 5)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DocumentPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(document))
	}))
	defer srv.Close()

	gw, err := gateway.New(srv.URL)
	require.NoError(t, err)

	c, err := Fetch(context.Background(), gw)
	require.NoError(t, err)
	assert.Equal(t, "LegalTime API 0.1.0", c.Title())
}

func TestRequired_CoversClientCalls(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range Required() {
		assert.False(t, seen[e.String()], "duplicate %s", e)
		seen[e.String()] = true
	}
	assert.True(t, seen["POST /auth/login"])
	assert.True(t, seen["PATCH /time-entries/{id}/approve"])
	assert.True(t, seen["GET /google/auth"])
}
