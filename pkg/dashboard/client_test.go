package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/config"
	"github.com/R0eii/Tucan/pkg/models"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.DashboardConfig{
		ServerAddress:  srv.URL,
		RequestTimeout: config.Duration(5 * time.Second),
	}

	return NewClient(cfg, zap.NewNop())
}

func TestListDevicesQuery(t *testing.T) {
	tests := []struct {
		name       string
		company    string
		search     string
		wantParams map[string]string
	}{
		{"no filters", "", "", map[string]string{"company": "", "search": ""}},
		{"all company is dropped", "all", "", map[string]string{"company": "", "search": ""}},
		{"both filters", "Acme Corporation", "phone",
			map[string]string{"company": "Acme Corporation", "search": "phone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/devices", r.URL.Path)

				for k, v := range tt.wantParams {
					assert.Equal(t, v, r.URL.Query().Get(k), k)
				}

				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode([]models.Device{{ID: "DEV-00001"}})
			}))

			list, err := client.ListDevices(context.Background(), tt.company, tt.search)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "DEV-00001", list[0].ID)
		})
	}
}

func TestRefreshSimulation(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/devices/refresh-simulation", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"message": "Simulation complete",
			"count":   12,
		})
	}))

	count, err := client.RefreshSimulation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, count)
}

func TestDeviceActions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.URL.Path == "/api/devices/DEV-00001/restart" && r.Method == http.MethodPost:
			_ = json.NewEncoder(w).Encode(models.Device{ID: "DEV-00001", Status: models.StatusOK})
		case r.URL.Path == "/api/devices/DEV-00001" && r.Method == http.MethodDelete:
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Device deleted"})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Device not found"})
		}
	}))

	device, err := client.RestartDevice(context.Background(), "DEV-00001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusOK, device.Status)

	require.NoError(t, client.DeleteDevice(context.Background(), "DEV-00001"))

	_, err = client.RetryDevice(context.Background(), "DEV-99999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Device not found")
}

func TestLoginStoresToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/auth/login":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"token": "tok-123",
				"user":  models.User{ID: "u-1", Email: "admin@example.com"},
			})
		case "/api/auth/me":
			// the credential from login must ride along on later calls
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(models.User{ID: "u-1", Email: "admin@example.com"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	user, err := client.Login(context.Background(), "admin@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)

	me, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", me.Email)
}

func TestAPIErrorMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid credentials"})
	}))

	_, err := client.Login(context.Background(), "ghost@example.com", "pw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.Contains(t, err.Error(), "401")
}
