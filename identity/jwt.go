package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenCookieName is the cookie checked when no bearer header is present.
const TokenCookieName = "auth_token"

// JWTValidator verifies HS256 tokens locally instead of calling out.
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator returns a validator for tokens signed with secret.
func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(secret)}
}

// Validate reads the token from the bearer header, falling back to the
// auth_token cookie, and returns the user id carried in its claims.
func (v *JWTValidator) Validate(_ context.Context, cred Credential) (Identity, error) {
	if cred.Empty() {
		return Identity{}, ErrMissingCredential
	}

	tokenString := bearerToken(cred.Authorization)
	if tokenString == "" {
		tokenString = cookieValue(cred.Cookie, TokenCookieName)
	}
	if tokenString == "" {
		return Identity{}, ErrInvalidCredential
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidCredential
	}

	id := identityFromClaims(claims, "sub", "userId")
	if id.UserID == "" {
		return Identity{}, fmt.Errorf("%w: token has no subject", ErrInvalidCredential)
	}
	return id, nil
}

// IssueToken signs a token for userID. Used by tooling and tests.
func (v *JWTValidator) IssueToken(userID, username string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("userID is required")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func bearerToken(header string) string {
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func cookieValue(header, name string) string {
	if header == "" {
		return ""
	}
	req := http.Request{Header: http.Header{"Cookie": {header}}}
	c, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
