// Package api pkg/api/interfaces.go
package api

import (
	"github.com/R0eii/Tucan/pkg/auth"
	"github.com/R0eii/Tucan/pkg/devices"
	"github.com/R0eii/Tucan/pkg/models"
)

//go:generate mockgen -destination=mock_services.go -package=api github.com/R0eii/Tucan/pkg/api DeviceService,AuthService

// DeviceService is the device façade consumed by the handlers.
type DeviceService interface {
	List(filter models.DeviceFilter) ([]models.Device, error)
	Get(id string) (*models.Device, error)
	Create(input devices.CreateDeviceInput) (*models.Device, error)
	Update(id string, patch models.DevicePatch) (*models.Device, error)
	Delete(id string) error
	Restart(id string) (*models.Device, error)
	Retry(id string) (*models.Device, error)
	RunSimulation() (int, error)
	CompanyStats() ([]models.CompanyStats, error)
	RenameCompany(oldName, newName string) error
	DeleteCompany(name string) error
}

// AuthService issues and verifies bearer credentials.
type AuthService interface {
	Register(name, email, password string) error
	Login(email, password string) (string, *models.User, error)
	Verify(token string) (*auth.Claims, error)
	Me(userID string) (*models.User, error)
	UpdateProfile(userID, name, email string) (*models.User, error)
}
