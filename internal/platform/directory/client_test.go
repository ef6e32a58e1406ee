package directory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/vic9511/hotmart-subscriptions-sync/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := &cfgpkg.Config{Directory: cfgpkg.DirectoryConfig{BaseURL: srv.URL, ServiceKey: "service-key"}}
	return New(cfg, zap.NewNop().Sugar()), srv
}

func TestUserIDByEmail_SendsCredentials(t *testing.T) {
	var gotAuth, gotAPIKey, gotEmail string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("apikey")
		gotEmail = r.URL.Query().Get("email")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"id": "user-1"}})
	})

	id, err := c.UserIDByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)
	assert.Equal(t, "Bearer service-key", gotAuth)
	assert.Equal(t, "service-key", gotAPIKey)
	assert.Equal(t, "a@x.com", gotEmail)
}

func TestUserIDByEmail_ResponseShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bare array", body: `[{"id":"u1"}]`, want: "u1"},
		{name: "empty array", body: `[]`, want: ""},
		{name: "users wrapper", body: `{"users":[{"id":"u2"}]}`, want: "u2"},
		{name: "single object", body: `{"id":"u3"}`, want: "u3"},
		{name: "unknown shape", body: `{"other":true}`, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			id, err := c.UserIDByEmail(context.Background(), "x@y.com")
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestUserIDByEmail_Failures(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	_, err := c.UserIDByEmail(context.Background(), "a@x.com")
	assert.Error(t, err)

	unconfigured := New(&cfgpkg.Config{}, zap.NewNop().Sugar())
	assert.False(t, unconfigured.Enabled())
	_, err = unconfigured.UserIDByEmail(context.Background(), "a@x.com")
	assert.Error(t, err)
}
