package solixcloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(Credentials{
		Username: "user@example.com",
		Password: "secret",
		Country:  "DE",
	}, zap.Must(zap.NewDevelopment()))
	client.baseURL = server.URL
	return client, server
}

func writeEnvelope(w http.ResponseWriter, code int, data any) {
	payload, _ := json.Marshal(data)
	json.NewEncoder(w).Encode(map[string]any{
		"code": code,
		"msg":  "",
		"data": json.RawMessage(payload),
	})
}

func TestLoginAndFleet(t *testing.T) {

	var loginToken string

	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case loginPath:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "user@example.com", body["email"])
			// password travels md5-hexed, never in the clear
			assert.Equal(t, "5ebe2294ecd0e0f08eab7690d2a6ee69", body["password"])
			writeEnvelope(w, 0, map[string]any{"auth_token": "tok-1"})
		case sitesPath:
			loginToken = r.Header.Get("X-Auth-Token")
			writeEnvelope(w, 0, map[string]any{
				"site_list": []map[string]any{
					{
						"site_id":   "site-1",
						"site_info": map[string]any{"site_name": "Home"},
					},
				},
			})
		case devicesPath:
			writeEnvelope(w, 0, map[string]any{
				"data": []map[string]any{
					{
						"device_sn":  "sb-1",
						"site_id":    "site-1",
						"type":       "solarbank",
						"alias":      "Garage",
						"data_valid": false,
					},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	require.NoError(t, client.Login(ctx))

	fleet, err := client.Fleet(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", loginToken)

	require.Len(t, fleet.Sites, 1)
	site := fleet.Sites[0]
	assert.Equal(t, "site-1", site.ID)
	assert.Equal(t, "Home", site.Name)
	assert.Equal(t, CategorySite, site.Category)
	// payloads without data_valid count as valid
	assert.True(t, site.Valid)

	require.Len(t, fleet.Devices, 1)
	dev := fleet.Devices[0]
	assert.Equal(t, "sb-1", dev.ID)
	assert.Equal(t, "Garage", dev.Name)
	assert.Equal(t, CategorySolarbank, dev.Category)
	assert.False(t, dev.Valid)
}

func TestFleetRequiresLogin(t *testing.T) {
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("no request expected, got %s", r.URL.Path)
	})

	_, err := client.Fleet(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestExpiredSessionClearsToken(t *testing.T) {
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case loginPath:
			writeEnvelope(w, 0, map[string]any{"auth_token": "tok-1"})
		case sitesPath:
			writeEnvelope(w, 10000, nil)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	ctx := context.Background()
	require.NoError(t, client.Login(ctx))

	_, err := client.Fleet(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)

	// the token is gone, the next call fails before any request
	_, err = client.Fleet(ctx)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Empty(t, client.authToken)
}

func TestLoginWithoutToken(t *testing.T) {
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, 0, map[string]any{})
	})

	err := client.Login(context.Background())
	assert.Error(t, err)
}

func TestAPIErrorSurfaces(t *testing.T) {
	client, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case loginPath:
			writeEnvelope(w, 0, map[string]any{"auth_token": "tok-1"})
		default:
			writeEnvelope(w, 5000, nil)
		}
	})

	ctx := context.Background()
	require.NoError(t, client.Login(ctx))

	_, err := client.Fleet(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnauthorized))
}
