// Package apicheck compares the endpoints this client calls with the
// OpenAPI document the backend publishes.
package apicheck

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/felixgeelhaar/legaltime/internal/api"
	"github.com/felixgeelhaar/legaltime/internal/errors"
	"github.com/felixgeelhaar/legaltime/internal/gateway"
)

// DocumentPath is where FastAPI serves the schema.
const DocumentPath = "/openapi.json"

// Finding codes.
const (
	CodeMissingPath   = "MISSING_API_PATH"
	CodeMissingMethod = "MISSING_API_METHOD"
	CodeInvalidSpec   = "INVALID_API_SPEC"
)

// Endpoint is one call the client makes.
type Endpoint struct {
	Method string `json:"method" yaml:"method"`
	Path   string `json:"path" yaml:"path"`
}

func (e Endpoint) String() string {
	return e.Method + " " + e.Path
}

// Finding is a mismatch between the client and the published schema.
type Finding struct {
	Code     string `json:"code" yaml:"code"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Message  string `json:"message" yaml:"message"`
	Severity string `json:"severity" yaml:"severity"` // error, warning
}

// Required lists every endpoint the client depends on.
func Required() []Endpoint {
	item := "/{id}"
	return []Endpoint{
		{http.MethodPost, gateway.LoginPath},
		{http.MethodGet, api.PathClients + "/"},
		{http.MethodGet, api.PathContracts + "/"},
		{http.MethodGet, api.PathMatters + "/"},
		{http.MethodGet, api.PathEmployees + "/"},
		{http.MethodGet, api.PathRates + "/"},
		{http.MethodGet, api.PathActivityTypes + "/"},
		{http.MethodGet, api.PathTimeEntries + "/"},
		{http.MethodGet, api.PathTimeEntries + item},
		{http.MethodGet, api.PathTimeEntries + "/pending"},
		{http.MethodGet, api.PathTimeEntries + "/filter"},
		{http.MethodPatch, api.PathTimeEntries + item + "/approve"},
		{http.MethodGet, api.PathTimeEntries + "/report"},
		{http.MethodPost, api.PathTimeEntries + "/recalculate-rates"},
		{http.MethodPost, api.PathTimeEntries + "/sync-to-calendar"},
		{http.MethodPost, api.PathTimeEntries + "/sync-from-calendar"},
		{http.MethodGet, api.PathTimeEntries + "/calendar/events"},
		{http.MethodGet, api.PathGoogleAuth},
	}
}

// Checker holds a loaded OpenAPI document.
type Checker struct {
	doc    *openapi3.T
	source string
	// invalid is the validation failure of a document that still loaded.
	invalid error
}

// Load parses an OpenAPI document in JSON or YAML. A document that parses
// but does not validate is kept and reported as a warning by Check.
func Load(data []byte, source string) (*Checker, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAPIContract, fmt.Sprintf("failed to load OpenAPI document from %s", source), err)
	}
	c := &Checker{doc: doc, source: source}
	if err := doc.Validate(context.Background()); err != nil {
		c.invalid = err
	}
	return c, nil
}

// Downloader is the part of the gateway Fetch needs.
type Downloader interface {
	Download(ctx context.Context, path string, query url.Values, w io.Writer) (int64, error)
}

// Fetch downloads and loads the backend's published document.
func Fetch(ctx context.Context, d Downloader) (*Checker, error) {
	var buf bytes.Buffer
	if _, err := d.Download(ctx, DocumentPath, nil, &buf); err != nil {
		return nil, err
	}
	return Load(buf.Bytes(), DocumentPath)
}

// Title returns the document title and version.
func (c *Checker) Title() string {
	if c.doc.Info == nil {
		return c.source
	}
	return strings.TrimSpace(c.doc.Info.Title + " " + c.doc.Info.Version)
}

// Check reports every endpoint missing from the document.
func (c *Checker) Check(endpoints []Endpoint) []Finding {
	var findings []Finding
	if c.invalid != nil {
		findings = append(findings, Finding{
			Code:     CodeInvalidSpec,
			Message:  fmt.Sprintf("document does not validate: %v", c.invalid),
			Severity: "warning",
		})
	}

	for _, e := range endpoints {
		item := c.find(e.Path)
		if item == nil {
			findings = append(findings, Finding{
				Code:     CodeMissingPath,
				Endpoint: e.String(),
				Message:  fmt.Sprintf("path not published: %s", e.Path),
				Severity: "error",
			})
			continue
		}
		if _, ok := item.Operations()[strings.ToUpper(e.Method)]; !ok {
			findings = append(findings, Finding{
				Code:     CodeMissingMethod,
				Endpoint: e.String(),
				Message:  fmt.Sprintf("method not published: %s %s", e.Method, e.Path),
				Severity: "error",
			})
		}
	}
	return findings
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == "error" {
			return true
		}
	}
	return false
}

// Summary maps every published path to its methods.
func (c *Checker) Summary() map[string][]string {
	summary := make(map[string][]string)
	if c.doc.Paths == nil {
		return summary
	}
	for path, item := range c.doc.Paths.Map() {
		var methods []string
		for method := range item.Operations() {
			methods = append(methods, method)
		}
		if len(methods) > 0 {
			sort.Strings(methods)
			summary[path] = methods
		}
	}
	return summary
}

// find matches path against the document. Trailing slashes are ignored
// and a {param} segment only matches a {param} segment.
func (c *Checker) find(path string) *openapi3.PathItem {
	if c.doc.Paths == nil {
		return nil
	}
	if item := c.doc.Paths.Value(path); item != nil {
		return item
	}

	want := segments(path)
	keys := make([]string, 0, c.doc.Paths.Len())
	for k := range c.doc.Paths.Map() {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		got := segments(k)
		if len(got) != len(want) {
			continue
		}
		match := true
		for i := range want {
			if isParam(want[i]) != isParam(got[i]) {
				match = false
				break
			}
			if !isParam(want[i]) && want[i] != got[i] {
				match = false
				break
			}
		}
		if match {
			return c.doc.Paths.Value(k)
		}
	}
	return nil
}

func segments(path string) []string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}
