// Package devices pkg/devices/service.go is the CRUD/query façade between
// the API layer and the device store.
package devices

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/db"
	"github.com/R0eii/Tucan/pkg/models"
	"github.com/R0eii/Tucan/pkg/simulator"
)

// ErrDeviceNotFound is re-exported so API callers don't need to import db.
var ErrDeviceNotFound = db.ErrDeviceNotFound

// idOffset keeps generated ids clear of the low-numbered seeded range
// (DEV-00001..). A fleet seeded with 300 devices and a fleet created one
// device at a time can coexist without id collisions.
const idOffset = 1000

// CreateDeviceInput are the caller-supplied fields for a new device;
// everything else gets a default.
type CreateDeviceInput struct {
	Name     string `json:"name"`
	IP       string `json:"ip"`
	Company  string `json:"company"`
	Location string `json:"location"`
	Type     string `json:"type"`
}

// Service mediates between the API layer and the store.
type Service struct {
	store  db.Service
	rng    *rand.Rand
	nowFn  func() time.Time
	logger *zap.Logger
}

// NewService creates a device service. rng seeds the simulation routines;
// pass a fixed-seed source in tests to pin outcomes.
func NewService(store db.Service, rng *rand.Rand, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		rng:    rng,
		nowFn:  time.Now,
		logger: logger,
	}
}

// List returns devices matching the filter, most recently updated first.
func (s *Service) List(filter models.DeviceFilter) ([]models.Device, error) {
	return s.store.ListDevices(filter)
}

func (s *Service) Get(id string) (*models.Device, error) {
	return s.store.GetDevice(id)
}

// Create assigns the next sequential id and fills in defaults for fields the
// caller didn't supply.
func (s *Service) Create(input CreateDeviceInput) (*models.Device, error) {
	count, err := s.store.CountDevices()
	if err != nil {
		return nil, err
	}

	deviceModel := input.Type
	if deviceModel == "" {
		deviceModel = "Gen-X Standard"
	}

	now := s.nowFn()
	device := &models.Device{
		ID:              fmt.Sprintf("DEV-%05d", count+idOffset),
		Name:            input.Name,
		IP:              input.IP,
		Company:         input.Company,
		Location:        input.Location,
		DeviceModel:     deviceModel,
		Department:      "IT",
		MAC:             "00:00:00:00:00:00",
		OS:              "v1.0",
		Status:          models.StatusOK,
		LastUpdate:      now,
		Battery:         100,
		SignalStrength:  100,
		Uptime:          0,
		RecentHistory:   []models.HealthSnap{},
		LongTermHistory: []models.HealthSnap{},
	}

	if err := s.store.CreateDevice(device); err != nil {
		return nil, err
	}

	s.logger.Info("device created", zap.String("id", device.ID), zap.String("company", device.Company))

	return device, nil
}

// Update merges the patch into the stored device. Setting status to ok
// clears the error message so the status/message invariant holds.
func (s *Service) Update(id string, patch models.DevicePatch) (*models.Device, error) {
	device, err := s.store.GetDevice(id)
	if err != nil {
		return nil, err
	}

	applyPatch(device, patch)
	device.LastUpdate = s.nowFn()

	if err := s.store.UpdateDevice(device); err != nil {
		return nil, err
	}

	return device, nil
}

// Delete removes a device; unknown ids succeed silently (idempotent delete).
func (s *Service) Delete(id string) error {
	return s.store.DeleteDevice(id)
}

// Restart applies a hard reset to the device and persists it.
func (s *Service) Restart(id string) (*models.Device, error) {
	device, err := s.store.GetDevice(id)
	if err != nil {
		return nil, err
	}

	updated := simulator.Restart(*device, s.nowFn())
	if err := s.store.UpdateDevice(&updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// Retry applies a reconnection attempt to the device and persists it.
func (s *Service) Retry(id string) (*models.Device, error) {
	device, err := s.store.GetDevice(id)
	if err != nil {
		return nil, err
	}

	updated := simulator.Retry(*device, s.rng, s.nowFn())
	if err := s.store.UpdateDevice(&updated); err != nil {
		return nil, err
	}

	return &updated, nil
}

// RunSimulation perturbs a random subset of the fleet and persists only the
// devices that actually changed. Per-device writes are independent; a failed
// write is logged and skipped, not rolled back.
func (s *Service) RunSimulation() (int, error) {
	fleet, err := s.store.ListDevices(models.DeviceFilter{})
	if err != nil {
		return 0, err
	}

	changed, _ := simulator.Tick(fleet, s.rng, s.nowFn())

	count := 0

	for i := range changed {
		if err := s.store.UpdateDevice(&changed[i]); err != nil {
			s.logger.Warn("simulation write failed",
				zap.String("id", changed[i].ID), zap.Error(err))
			continue
		}

		count++
	}

	return count, nil
}

// CompanyStats returns the per-company device counts, largest first.
func (s *Service) CompanyStats() ([]models.CompanyStats, error) {
	return s.store.CompanyCounts()
}

// RenameCompany bulk-updates every device tagged with oldName. Best-effort:
// there is no company entity to keep in sync.
func (s *Service) RenameCompany(oldName, newName string) error {
	n, err := s.store.RenameCompany(oldName, newName)
	if err != nil {
		return err
	}

	s.logger.Info("company renamed",
		zap.String("from", oldName), zap.String("to", newName), zap.Int64("devices", n))

	return nil
}

// DeleteCompany removes every device tagged with the company.
func (s *Service) DeleteCompany(name string) error {
	n, err := s.store.DeleteCompany(name)
	if err != nil {
		return err
	}

	s.logger.Info("company deleted", zap.String("name", name), zap.Int64("devices", n))

	return nil
}

// Seed replaces the whole collection with n generated devices.
func (s *Service) Seed(n int) ([]models.Device, error) {
	fleet := simulator.Generate(n, s.rng, s.nowFn())
	if err := s.store.ReplaceDevices(fleet); err != nil {
		return nil, err
	}

	return fleet, nil
}

func applyPatch(d *models.Device, patch models.DevicePatch) {
	if patch.Name != nil {
		d.Name = *patch.Name
	}

	if patch.IP != nil {
		d.IP = *patch.IP
	}

	if patch.MAC != nil {
		d.MAC = *patch.MAC
	}

	if patch.Company != nil {
		d.Company = *patch.Company
	}

	if patch.Department != nil {
		d.Department = *patch.Department
	}

	if patch.Location != nil {
		d.Location = *patch.Location
	}

	if patch.DeviceModel != nil {
		d.DeviceModel = *patch.DeviceModel
	}

	if patch.OS != nil {
		d.OS = *patch.OS
	}

	if patch.Status != nil {
		d.Status = *patch.Status
	}

	if patch.ErrorMessage != nil {
		d.ErrorMessage = patch.ErrorMessage
	}

	// errorMessage is nil exactly when status is ok
	if d.Status == models.StatusOK {
		d.ErrorMessage = nil
	} else if d.ErrorMessage == nil {
		msg := "Unknown fault"
		d.ErrorMessage = &msg
	}
}
