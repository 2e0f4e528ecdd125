// Package token decodes LegalTime bearer tokens into typed claims.
//
// Decoding is read-only: the signature and expiry are never checked.
// The backend verifies every token it receives; claims decoded here only
// drive what the client shows.
package token

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/legaltime/internal/authz"
	"github.com/felixgeelhaar/legaltime/internal/errors"
)

// ErrUndecodable is the sentinel behind every decode failure.
var ErrUndecodable = errors.New(errors.ErrCodeTokenUndecodable, "token is undecodable")

// Claims is the payload of a LegalTime access token.
type Claims struct {
	jwt.RegisteredClaims

	// RawRole is the role claim exactly as issued. Use Role for gating.
	RawRole string `json:"role,omitempty"`

	// EmployeeID is only present when the backend includes it.
	EmployeeID *int `json:"employee_id,omitempty"`
}

// Role returns the role claim mapped onto the closed role set.
func (c *Claims) Role() authz.Role {
	return authz.ParseRole(c.RawRole)
}

// Email returns the subject, which LegalTime sets to the login email.
func (c *Claims) Email() string {
	return c.Subject
}

// Expiry returns the exp claim, if present.
func (c *Claims) Expiry() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// Expired reports whether exp is in the past relative to now. Tokens
// without exp never expire client-side.
func (c *Claims) Expired(now time.Time) bool {
	exp, ok := c.Expiry()
	return ok && !now.Before(exp)
}

// Actor returns the identity used for client-side approval checks.
func (c *Claims) Actor() authz.Actor {
	return authz.Actor{Email: c.Subject, Role: c.Role(), EmployeeID: c.EmployeeID}
}

// DecodeError describes why a token could not be decoded.
type DecodeError struct {
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("undecodable token: %s: %v", e.Reason, e.Cause)
	}
	return "undecodable token: " + e.Reason
}

// Unwrap lets errors.Is match ErrUndecodable.
func (e *DecodeError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrUndecodable, e.Cause}
	}
	return []error{ErrUndecodable}
}

func undecodable(reason string, cause error) error {
	return &DecodeError{Reason: reason, Cause: cause}
}

// decoder accepts padded and unpadded payload segments.
var decoder = jwt.NewParser(jwt.WithPaddingAllowed())

// Decode parses the claims of a compact three-segment token.
func Decode(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, undecodable("empty token", nil)
	}

	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return nil, undecodable(fmt.Sprintf("expected 3 segments, got %d", len(segments)), nil)
	}

	// Some issuers emit the standard alphabet; fold it onto the URL-safe one.
	payload := strings.NewReplacer("+", "-", "/", "_").Replace(segments[1])
	data, err := decoder.DecodeSegment(payload)
	if err != nil {
		return nil, undecodable("payload is not base64url", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, undecodable("payload is not a JSON object", err)
	}

	// Only the subject is required. Any other claim that is missing or
	// badly typed is left unset.
	var claims Claims
	claim(fields, "sub", &claims.Subject)
	if claims.Subject == "" {
		return nil, undecodable("missing subject", nil)
	}
	claim(fields, "role", &claims.RawRole)
	claim(fields, "iss", &claims.Issuer)
	claim(fields, "jti", &claims.ID)
	claim(fields, "aud", &claims.Audience)

	var id int
	if claim(fields, "employee_id", &id) {
		claims.EmployeeID = &id
	}
	claims.ExpiresAt = numericDate(fields, "exp")
	claims.NotBefore = numericDate(fields, "nbf")
	claims.IssuedAt = numericDate(fields, "iat")

	return &claims, nil
}

// claim decodes the named claim into v and reports whether it was present
// and well typed. v is untouched otherwise.
func claim[T any](fields map[string]json.RawMessage, name string, v *T) bool {
	msg, ok := fields[name]
	if !ok || string(msg) == "null" {
		return false
	}
	var out T
	if err := json.Unmarshal(msg, &out); err != nil {
		return false
	}
	*v = out
	return true
}

func numericDate(fields map[string]json.RawMessage, name string) *jwt.NumericDate {
	var d jwt.NumericDate
	if !claim(fields, name, &d) {
		return nil
	}
	return &d
}

// Fingerprint returns a short stable digest of raw so a token can be told
// apart in logs without writing it out.
func Fingerprint(raw string) string {
	if raw == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:6])
}
