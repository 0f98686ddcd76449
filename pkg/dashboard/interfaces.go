// Package dashboard pkg/dashboard/interfaces.go
package dashboard

import (
	"context"

	"github.com/R0eii/Tucan/pkg/models"
)

// API is the slice of the fleet API the controller depends on. *Client
// implements it; tests substitute their own.
type API interface {
	ListDevices(ctx context.Context, company, search string) ([]models.Device, error)
	RefreshSimulation(ctx context.Context) (int, error)
	RestartDevice(ctx context.Context, id string) (*models.Device, error)
	RetryDevice(ctx context.Context, id string) (*models.Device, error)
	UpdateDevice(ctx context.Context, id string, patch models.DevicePatch) (*models.Device, error)
	DeleteDevice(ctx context.Context, id string) error
}
