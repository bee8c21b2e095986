// Package identity authenticates API callers against an identity service.
package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrMissingCredential means the request carried neither a bearer token nor a cookie.
	ErrMissingCredential = errors.New("no credential provided")
	// ErrInvalidCredential means the identity service did not recognise the credential.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnavailable means the identity service could not be consulted.
	ErrUnavailable = errors.New("identity service unavailable")
)

// Credential is the auth material copied from an incoming request.
type Credential struct {
	Authorization string
	Cookie        string
}

// Empty reports whether no auth material was supplied.
func (c Credential) Empty() bool {
	return strings.TrimSpace(c.Authorization) == "" && strings.TrimSpace(c.Cookie) == ""
}

// Identity is the authenticated caller.
type Identity struct {
	UserID   string         `json:"userId"`
	Username string         `json:"username,omitempty"`
	Email    string         `json:"email,omitempty"`
	Claims   map[string]any `json:"-"`
}

// Validator resolves a credential to an identity.
type Validator interface {
	Validate(ctx context.Context, cred Credential) (Identity, error)
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(ctx context.Context, cred Credential) (Identity, error)

// Validate calls f(ctx, cred).
func (f ValidatorFunc) Validate(ctx context.Context, cred Credential) (Identity, error) {
	return f(ctx, cred)
}

type contextKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity attached by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// identityFromClaims builds an Identity from a decoded user payload.
func identityFromClaims(claims map[string]any, idKeys ...string) Identity {
	id := Identity{Claims: claims}
	for _, key := range idKeys {
		if v := stringClaim(claims[key]); v != "" {
			id.UserID = v
			break
		}
	}
	id.Username = stringClaim(claims["username"])
	if id.Username == "" {
		id.Username = stringClaim(claims["name"])
	}
	id.Email = stringClaim(claims["email"])
	return id
}

func stringClaim(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
