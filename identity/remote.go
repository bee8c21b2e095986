package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RemoteValidator forwards the caller's credential to an external identity
// endpoint and trusts whatever user it returns under "data".
type RemoteValidator struct {
	url    string
	client *http.Client
}

// NewRemoteValidator targets url with the given request timeout.
func NewRemoteValidator(url string, timeout time.Duration) *RemoteValidator {
	return &RemoteValidator{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

type remoteResponse struct {
	Data json.RawMessage `json:"data"`
}

// Validate performs one GET per call; nothing is cached.
func (v *RemoteValidator) Validate(ctx context.Context, cred Credential) (Identity, error) {
	if cred.Empty() {
		return Identity{}, ErrMissingCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cred.Authorization != "" {
		req.Header.Set("Authorization", cred.Authorization)
	}
	if cred.Cookie != "" {
		req.Header.Set("Cookie", cred.Cookie)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var body remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Identity{}, fmt.Errorf("%w: decode response (status %d): %v", ErrUnavailable, resp.StatusCode, err)
	}

	claims, ok := truthyObject(body.Data)
	if !ok {
		return Identity{}, ErrInvalidCredential
	}

	id := identityFromClaims(claims, "userId", "id")
	if id.UserID == "" {
		return Identity{}, fmt.Errorf("%w: identity has no user id", ErrInvalidCredential)
	}
	return id, nil
}

// truthyObject decodes raw as a JSON object. null, false, 0, "" and
// non-object values all count as no identity.
func truthyObject(raw json.RawMessage) (map[string]any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false
	}
	obj, ok := value.(map[string]any)
	return obj, ok
}
