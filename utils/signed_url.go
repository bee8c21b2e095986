package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrSignatureMissing = errors.New("missing download signature parameters")
	ErrSignatureExpired = errors.New("download link has expired")
	ErrSignatureInvalid = errors.New("invalid download signature")
)

// URLSigner builds and checks presigned query strings for blob downloads.
type URLSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewURLSigner returns a signer. A non-positive ttl defaults to five minutes.
func NewURLSigner(secret string, ttl time.Duration) *URLSigner {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &URLSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign builds the "exp=..&nonce=..&sig=.." query for the given stored name.
func (s *URLSigner) Sign(name string) (string, error) {
	if name == "" {
		return "", errors.New("name is required")
	}

	expiration := s.now().Add(s.ttl).Unix()
	nonceBytes := make([]byte, 12)
	if _, err := rand.Read(nonceBytes); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	q := url.Values{}
	q.Set("exp", strconv.FormatInt(expiration, 10))
	q.Set("nonce", nonce)
	q.Set("sig", s.sign(name, expiration, nonce))
	return q.Encode(), nil
}

// Verify checks the query parameters produced by Sign.
func (s *URLSigner) Verify(name string, q url.Values) error {
	expStr, nonce, sig := q.Get("exp"), q.Get("nonce"), q.Get("sig")
	if name == "" || expStr == "" || nonce == "" || sig == "" {
		return ErrSignatureMissing
	}

	expiration, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad expiration", ErrSignatureInvalid)
	}
	if s.now().Unix() > expiration {
		return ErrSignatureExpired
	}

	if !hmac.Equal([]byte(s.sign(name, expiration, nonce)), []byte(sig)) {
		return ErrSignatureInvalid
	}
	return nil
}

func (s *URLSigner) sign(name string, expiration int64, nonce string) string {
	payload := strings.Join([]string{name, strconv.FormatInt(expiration, 10), nonce}, "|")
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
