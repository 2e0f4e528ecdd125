package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/legaltime/internal/errors"
)

// problem is the backend's error body: {"detail": string | array | object}.
type problem struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
}

type detailItem struct {
	Loc     []any  `json:"loc"`
	Msg     string `json:"msg"`
	Message string `json:"message"`
}

// ParseDetail extracts user-facing text from an error body. Validation
// arrays also yield one FieldError per located item. fallback is used when
// the body carries nothing readable.
func ParseDetail(body []byte, fallback string) (string, []errors.FieldError) {
	var p problem
	if err := json.Unmarshal(body, &p); err != nil {
		return fallback, nil
	}

	detail := bytes.TrimSpace(p.Detail)
	if len(detail) == 0 || bytes.Equal(detail, []byte("null")) {
		if p.Message != "" {
			return p.Message, nil
		}
		return fallback, nil
	}

	switch detail[0] {
	case '"':
		var s string
		if err := json.Unmarshal(detail, &s); err != nil || s == "" {
			return fallback, nil
		}
		return s, nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(detail, &items); err != nil {
			return fallback, nil
		}
		var (
			parts  []string
			fields []errors.FieldError
		)
		for _, raw := range items {
			text, field := describeItem(raw)
			parts = append(parts, text)
			if field != nil {
				fields = append(fields, *field)
			}
		}
		if len(parts) == 0 {
			return fallback, nil
		}
		return strings.Join(parts, ", "), fields

	case '{':
		var item detailItem
		if err := json.Unmarshal(detail, &item); err != nil {
			return fallback, nil
		}
		if item.Msg != "" {
			return item.Msg, nil
		}
		if item.Message != "" {
			return item.Message, nil
		}
		return compact(detail), nil
	}

	return fallback, nil
}

func describeItem(raw json.RawMessage) (string, *errors.FieldError) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var item detailItem
	if err := json.Unmarshal(raw, &item); err != nil || item.Msg == "" {
		return compact(raw), nil
	}
	if len(item.Loc) == 0 {
		return item.Msg, nil
	}

	loc := make([]string, len(item.Loc))
	for i, part := range item.Loc {
		loc[i] = fmt.Sprint(part)
	}
	return item.Msg, &errors.FieldError{Loc: loc, Msg: item.Msg}
}

func compact(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
