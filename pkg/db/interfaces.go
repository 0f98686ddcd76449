// Package db pkg/db/interfaces.go
package db

import (
	"github.com/R0eii/Tucan/pkg/models"
)

//go:generate mockgen -destination=mock_db.go -package=db github.com/R0eii/Tucan/pkg/db Service

// Service represents all database operations.
type Service interface {
	Close() error

	// Device operations.

	ListDevices(filter models.DeviceFilter) ([]models.Device, error)
	GetDevice(id string) (*models.Device, error)
	CountDevices() (int, error)
	CreateDevice(device *models.Device) error
	UpdateDevice(device *models.Device) error
	DeleteDevice(id string) error
	ReplaceDevices(devices []models.Device) error

	// Company aggregates. Companies are derived from the devices table;
	// rename/delete are bulk writes over every matching device row.

	CompanyCounts() ([]models.CompanyStats, error)
	RenameCompany(oldName, newName string) (int64, error)
	DeleteCompany(name string) (int64, error)

	// User operations.

	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	UpdateUser(user *models.User) error
	EmailInUse(email, excludeUserID string) (bool, error)
}
