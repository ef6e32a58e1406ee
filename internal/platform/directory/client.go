package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	cfgpkg "github.com/vic9511/hotmart-subscriptions-sync/pkg/config"
)

// Client looks up external identities by email through the auth admin API.
// All lookups are advisory: callers treat any failure as "identity unknown".
type Client struct {
	baseURL    string
	serviceKey string
	http       *http.Client
	log        *zap.SugaredLogger
}

func New(cfg *cfgpkg.Config, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.Directory.BaseURL, "/"),
		serviceKey: cfg.Directory.ServiceKey,
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Enabled reports whether directory credentials were configured.
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.serviceKey != ""
}

// UserIDByEmail returns the external identity id for an email, or "" when the
// directory has no match. The admin API has been seen answering in three
// shapes: a bare array of users, {"users":[...]}, or a single user object.
func (c *Client) UserIDByEmail(ctx context.Context, email string) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("directory not configured")
	}

	u := fmt.Sprintf("%s/auth/v1/admin/users?email=%s", c.baseURL, url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("directory lookup failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("directory lookup failed: status %d", res.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("directory response decode failed: %w", err)
	}
	return extractUserID(raw), nil
}

type directoryUser struct {
	ID string `json:"id"`
}

func extractUserID(raw json.RawMessage) string {
	var list []directoryUser
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) > 0 {
			return list[0].ID
		}
		return ""
	}
	var wrapped struct {
		Users []directoryUser `json:"users"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Users) > 0 {
		return wrapped.Users[0].ID
	}
	var single directoryUser
	if err := json.Unmarshal(raw, &single); err == nil {
		return single.ID
	}
	return ""
}

var Module = fx.Options(
	fx.Provide(New),
)
