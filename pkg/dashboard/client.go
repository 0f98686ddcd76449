// Package dashboard pkg/dashboard/client.go is the HTTP client the dashboard
// uses to talk to the fleet API.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/config"
	"github.com/R0eii/Tucan/pkg/devices"
	"github.com/R0eii/Tucan/pkg/models"
)

// Client wraps the REST API. The base URL comes from configuration; nothing
// here is hardcoded to an environment.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(cfg *config.DashboardConfig, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(cfg.ServerAddress).
		SetTimeout(time.Duration(cfg.RequestTimeout)).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:   httpClient,
		logger: logger,
	}
}

// SetToken attaches the bearer credential used on protected routes.
func (c *Client) SetToken(token string) {
	c.http.SetAuthToken(token)
}

func (c *Client) ListDevices(ctx context.Context, company, search string) ([]models.Device, error) {
	var list []models.Device

	req := c.http.R().SetContext(ctx).SetResult(&list)

	if company != "" && company != "all" {
		req.SetQueryParam("company", company)
	}

	if search != "" {
		req.SetQueryParam("search", search)
	}

	resp, err := req.Get("/api/devices")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}

	if resp.IsError() {
		return nil, apiError(resp)
	}

	return list, nil
}

func (c *Client) CreateDevice(ctx context.Context, input devices.CreateDeviceInput) (*models.Device, error) {
	return c.deviceCall(ctx, resty.MethodPost, "/api/devices", input)
}

func (c *Client) UpdateDevice(ctx context.Context, id string, patch models.DevicePatch) (*models.Device, error) {
	return c.deviceCall(ctx, resty.MethodPut, "/api/devices/"+id, patch)
}

func (c *Client) RestartDevice(ctx context.Context, id string) (*models.Device, error) {
	return c.deviceCall(ctx, resty.MethodPost, "/api/devices/"+id+"/restart", nil)
}

func (c *Client) RetryDevice(ctx context.Context, id string) (*models.Device, error) {
	return c.deviceCall(ctx, resty.MethodPost, "/api/devices/"+id+"/retry", nil)
}

func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/api/devices/" + id)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}

	if resp.IsError() {
		return apiError(resp)
	}

	return nil
}

// RefreshSimulation triggers the server-side fleet perturbation and returns
// how many devices changed.
func (c *Client) RefreshSimulation(ctx context.Context) (int, error) {
	var result struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}

	resp, err := c.http.R().SetContext(ctx).SetResult(&result).Post("/api/devices/refresh-simulation")
	if err != nil {
		return 0, fmt.Errorf("failed to trigger simulation: %w", err)
	}

	if resp.IsError() {
		return 0, apiError(resp)
	}

	return result.Count, nil
}

func (c *Client) CompanyStats(ctx context.Context) ([]models.CompanyStats, error) {
	var stats []models.CompanyStats

	resp, err := c.http.R().SetContext(ctx).SetResult(&stats).Get("/api/devices/stats/companies")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch company stats: %w", err)
	}

	if resp.IsError() {
		return nil, apiError(resp)
	}

	return stats, nil
}

// Login authenticates and remembers the bearer token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var result struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&result).
		Post("/api/auth/login")
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if resp.IsError() {
		return nil, apiError(resp)
	}

	c.SetToken(result.Token)

	return result.User, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"name": name, "email": email, "password": password}).
		Post("/api/auth/register")
	if err != nil {
		return fmt.Errorf("register failed: %w", err)
	}

	if resp.IsError() {
		return apiError(resp)
	}

	return nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User

	resp, err := c.http.R().SetContext(ctx).SetResult(&user).Get("/api/auth/me")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &user, nil
}

func (c *Client) UpdateDetails(ctx context.Context, name, email string) (*models.User, error) {
	var user models.User

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"name": name, "email": email}).
		SetResult(&user).
		Put("/api/auth/updatedetails")
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &user, nil
}

func (c *Client) deviceCall(ctx context.Context, method, url string, body interface{}) (*models.Device, error) {
	var device models.Device

	req := c.http.R().SetContext(ctx).SetResult(&device)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, fmt.Errorf("request %s %s failed: %w", method, url, err)
	}

	if resp.IsError() {
		return nil, apiError(resp)
	}

	return &device, nil
}

func apiError(resp *resty.Response) error {
	var body struct {
		Message string `json:"message"`
	}

	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode(), body.Message)
	}

	return fmt.Errorf("server returned %d", resp.StatusCode())
}
