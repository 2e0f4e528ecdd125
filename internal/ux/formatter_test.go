package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matter struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type matters []matter

func (m matters) Table() *Table {
	t := NewTable("ID", "NAME")
	for _, x := range m {
		t.Append("1", x.Name)
	}
	return t
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"json format", "json", false},
		{"yaml format", "yaml", false},
		{"text format", "text", false},
		{"empty format defaults to text", "", false},
		{"unknown format", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFormatter(tt.format, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if ValidFormat(tt.format) == tt.wantErr {
				t.Errorf("ValidFormat(%q) disagrees with NewFormatter", tt.format)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("json", &FormatterOptions{Writer: &buf})
	require.NoError(t, err)

	require.NoError(t, formatter.Format(matters{{ID: 1, Name: "Acme v. Globex"}}))
	assert.Contains(t, buf.String(), `"name": "Acme v. Globex"`)
	assert.Contains(t, buf.String(), `"id": 1`)
}

func TestJSONFormatterCompact(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("json", &FormatterOptions{Writer: &buf, Compact: true})
	require.NoError(t, err)

	require.NoError(t, formatter.Format(matter{ID: 1, Name: "x"}))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"), "compact JSON is a single line")
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("yaml", &FormatterOptions{Writer: &buf})
	require.NoError(t, err)

	require.NoError(t, formatter.Format(matter{ID: 42, Name: "test"}))
	assert.Contains(t, buf.String(), "name: test")
	assert.Contains(t, buf.String(), "id: 42")
}

func TestTextFormatter(t *testing.T) {
	tests := []struct {
		name    string
		data    interface{}
		want    []string
		wantErr bool
	}{
		{name: "string data", data: "hello world", want: []string{"hello world"}},
		{name: "table", data: matters{{ID: 1, Name: "Acme v. Globex"}}, want: []string{"NAME", "Acme v. Globex"}},
		{name: "empty table", data: matters{}, want: []string{"No results."}},
		{name: "fields", data: Fields{{"Email", "a@x.com"}, {"Role", "Admin"}}, want: []string{"Email:  a@x.com", "Role:   Admin"}},
		{name: "struct without text rendering", data: matter{ID: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			formatter, err := NewFormatter("text", &FormatterOptions{Writer: &buf, NoColor: true})
			require.NoError(t, err)

			err = formatter.Format(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}
