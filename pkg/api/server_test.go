package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/auth"
	"github.com/R0eii/Tucan/pkg/db"
	"github.com/R0eii/Tucan/pkg/devices"
	"github.com/R0eii/Tucan/pkg/models"
)

func setupMockServer(t *testing.T) (*MockDeviceService, *MockAuthService, *httptest.Server) {
	t.Helper()

	ctrl := gomock.NewController(t)
	deviceSvc := NewMockDeviceService(ctrl)
	authSvc := NewMockAuthService(ctrl)

	srv := httptest.NewServer(NewAPIServer(deviceSvc, authSvc, zap.NewNop()).Router())
	t.Cleanup(srv.Close)

	return deviceSvc, authSvc, srv
}

func doJSON(t *testing.T, method, url string, body interface{}, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthCheck(t *testing.T) {
	_, _, srv := setupMockServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetDevices(t *testing.T) {
	deviceSvc, _, srv := setupMockServer(t)

	t.Run("passes filters through", func(t *testing.T) {
		deviceSvc.EXPECT().
			List(models.DeviceFilter{Company: "Acme Corporation", Search: "phone"}).
			Return([]models.Device{{ID: "DEV-00001"}}, nil)

		resp := doJSON(t, http.MethodGet,
			srv.URL+"/api/devices?company=Acme+Corporation&search=phone", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var list []models.Device
		decode(t, resp, &list)
		require.Len(t, list, 1)
		assert.Equal(t, "DEV-00001", list[0].ID)
	})

	t.Run("empty result is a JSON array, not null", func(t *testing.T) {
		deviceSvc.EXPECT().List(gomock.Any()).Return(nil, nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/devices", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var raw json.RawMessage
		decode(t, resp, &raw)
		assert.JSONEq(t, "[]", string(raw))
	})

	t.Run("store failure is a 500", func(t *testing.T) {
		deviceSvc.EXPECT().List(gomock.Any()).Return(nil, errors.New("boom"))

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/devices", nil, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

		var body messageResponse
		decode(t, resp, &body)
		assert.Equal(t, "Server Error", body.Message)
	})
}

func TestCreateDevice(t *testing.T) {
	deviceSvc, _, srv := setupMockServer(t)

	t.Run("created", func(t *testing.T) {
		input := devices.CreateDeviceInput{Name: "D", IP: "10.0.0.1", Company: "Acme Corporation"}

		deviceSvc.EXPECT().Create(input).Return(&models.Device{ID: "DEV-01000"}, nil)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/devices", input, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var device models.Device
		decode(t, resp, &device)
		assert.Equal(t, "DEV-01000", device.ID)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/devices",
			devices.CreateDeviceInput{Name: "D"}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUpdateDevice(t *testing.T) {
	deviceSvc, _, srv := setupMockServer(t)

	t.Run("unknown id is 404", func(t *testing.T) {
		deviceSvc.EXPECT().Update("DEV-99999", gomock.Any()).Return(nil, db.ErrDeviceNotFound)

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/devices/DEV-99999",
			models.DevicePatch{}, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var body messageResponse
		decode(t, resp, &body)
		assert.Equal(t, "Device not found", body.Message)
	})

	t.Run("updated", func(t *testing.T) {
		name := "Renamed"

		deviceSvc.EXPECT().Update("DEV-00001", models.DevicePatch{Name: &name}).
			Return(&models.Device{ID: "DEV-00001", Name: name}, nil)

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/devices/DEV-00001",
			models.DevicePatch{Name: &name}, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestDeleteDevice(t *testing.T) {
	deviceSvc, _, srv := setupMockServer(t)

	deviceSvc.EXPECT().Delete("DEV-00001").Return(nil)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/devices/DEV-00001", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body messageResponse
	decode(t, resp, &body)
	assert.Equal(t, "Device deleted", body.Message)
}

func TestDeviceActions(t *testing.T) {
	deviceSvc, _, srv := setupMockServer(t)

	t.Run("restart", func(t *testing.T) {
		deviceSvc.EXPECT().Restart("DEV-00001").
			Return(&models.Device{ID: "DEV-00001", Status: models.StatusOK}, nil)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/devices/DEV-00001/restart", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("retry unknown id", func(t *testing.T) {
		deviceSvc.EXPECT().Retry("DEV-99999").Return(nil, db.ErrDeviceNotFound)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/devices/DEV-99999/retry", nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRefreshSimulation(t *testing.T) {
	deviceSvc, _, srv := setupMockServer(t)

	deviceSvc.EXPECT().RunSimulation().Return(17, nil)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/devices/refresh-simulation", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body simulationResponse
	decode(t, resp, &body)
	assert.Equal(t, 17, body.Count)
	assert.Equal(t, "Simulation complete", body.Message)
}

func TestCompanyEndpoints(t *testing.T) {
	deviceSvc, _, srv := setupMockServer(t)

	t.Run("stats", func(t *testing.T) {
		deviceSvc.EXPECT().CompanyStats().Return([]models.CompanyStats{
			{ID: 1, Name: "Acme Corporation", DeviceCount: 3},
		}, nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/devices/stats/companies", nil, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var stats []models.CompanyStats
		decode(t, resp, &stats)
		require.Len(t, stats, 1)
		assert.Equal(t, 3, stats[0].DeviceCount)
	})

	t.Run("rename requires newName", func(t *testing.T) {
		resp := doJSON(t, http.MethodPut, srv.URL+"/api/devices/companies/Acme",
			map[string]string{}, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rename", func(t *testing.T) {
		deviceSvc.EXPECT().RenameCompany("Acme Corporation", "Acme Ltd").Return(nil)

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/devices/companies/Acme Corporation",
			renameCompanyRequest{NewName: "Acme Ltd"}, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		deviceSvc.EXPECT().DeleteCompany("Acme Ltd").Return(nil)

		resp := doJSON(t, http.MethodDelete, srv.URL+"/api/devices/companies/Acme Ltd", nil, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAuthEndpoints(t *testing.T) {
	_, authSvc, srv := setupMockServer(t)

	t.Run("register", func(t *testing.T) {
		authSvc.EXPECT().Register("Admin", "admin@example.com", "hunter22").Return(nil)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register",
			registerRequest{Name: "Admin", Email: "admin@example.com", Password: "hunter22"}, nil)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("register conflict", func(t *testing.T) {
		authSvc.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(auth.ErrEmailTaken)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register",
			registerRequest{Name: "Admin", Email: "admin@example.com", Password: "x"}, nil)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("login failure", func(t *testing.T) {
		authSvc.EXPECT().Login("ghost@example.com", "pw").
			Return("", nil, auth.ErrInvalidCredentials)

		resp := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login",
			loginRequest{Email: "ghost@example.com", Password: "pw"}, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		var body messageResponse
		decode(t, resp, &body)
		assert.Equal(t, "Invalid credentials", body.Message)
	})

	t.Run("me without token", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("me with bad token", func(t *testing.T) {
		authSvc.EXPECT().Verify("garbage").Return(nil, auth.ErrInvalidToken)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", nil,
			map[string]string{"Authorization": "Bearer garbage"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("me", func(t *testing.T) {
		authSvc.EXPECT().Verify("good").Return(&auth.Claims{UserID: "u-1"}, nil)
		authSvc.EXPECT().Me("u-1").Return(&models.User{ID: "u-1", Email: "admin@example.com"}, nil)

		resp := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", nil,
			map[string]string{"Authorization": "Bearer good"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var user models.User
		decode(t, resp, &user)
		assert.Equal(t, "admin@example.com", user.Email)
	})

	t.Run("update details missing fields", func(t *testing.T) {
		authSvc.EXPECT().Verify("good").Return(&auth.Claims{UserID: "u-1"}, nil)
		authSvc.EXPECT().UpdateProfile("u-1", "", "a@b.com").
			Return(nil, auth.ErrMissingFields)

		resp := doJSON(t, http.MethodPut, srv.URL+"/api/auth/updatedetails",
			updateDetailsRequest{Email: "a@b.com"},
			map[string]string{"Authorization": "Bearer good"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCORSPreflight(t *testing.T) {
	_, _, srv := setupMockServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/devices", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
