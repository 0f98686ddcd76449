// Package models pkg/models/device.go contains the wire types shared by the
// server, store and dashboard client.
package models

import "time"

// DeviceStatus is the health state of a device.
type DeviceStatus string

const (
	StatusOK      DeviceStatus = "ok"
	StatusWarning DeviceStatus = "warning"
	StatusError   DeviceStatus = "error"
)

// HealthSnap is a single point-in-time sample of a device's health.
// Timestamp is a display string: "15:00" for hourly samples, a short date
// for daily aggregates.
type HealthSnap struct {
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"` // 0 or 1 hourly, fractional average daily
	Battery   float64 `json:"battery"`
	Signal    float64 `json:"signal"`
}

// Device is the central monitored entity. The JSON field names are the REST
// contract; timestamps serialize as RFC3339 strings.
type Device struct {
	ID              string       `json:"id"` // human-assigned, DEV-NNNNN
	Name            string       `json:"name"`
	IP              string       `json:"ip"`
	MAC             string       `json:"mac"`
	Company         string       `json:"company"`
	Status          DeviceStatus `json:"status"`
	ErrorMessage    *string      `json:"errorMessage"` // nil exactly when Status == ok
	LastUpdate      time.Time    `json:"lastUpdate"`
	Department      string       `json:"department"`
	Location        string       `json:"location"`
	DeviceModel     string       `json:"deviceModel"`
	OS              string       `json:"os"`
	Battery         float64      `json:"battery"`        // percent, [0,100]
	SignalStrength  float64      `json:"signalStrength"` // percent, [0,100]
	Uptime          float64      `json:"uptime"`         // hours since last restart
	LastIncident    *time.Time   `json:"lastIncident"`
	RecentHistory   []HealthSnap `json:"recentHistory"`   // 24h hourly window, oldest first
	LongTermHistory []HealthSnap `json:"longTermHistory"` // 90d daily window, oldest first
}

// IsHealthy reports whether the device counts as online for KPI purposes.
func (d *Device) IsHealthy() bool {
	return d.Status == StatusOK
}

// DeviceFilter narrows a device listing. An empty or "all" company means no
// company filter; Search matches name, id or ip case-insensitively.
type DeviceFilter struct {
	Company string
	Search  string
}

// DevicePatch is a partial update of a device's mutable fields. Nil fields
// are left untouched.
type DevicePatch struct {
	Name         *string       `json:"name,omitempty"`
	IP           *string       `json:"ip,omitempty"`
	MAC          *string       `json:"mac,omitempty"`
	Company      *string       `json:"company,omitempty"`
	Department   *string       `json:"department,omitempty"`
	Location     *string       `json:"location,omitempty"`
	DeviceModel  *string       `json:"deviceModel,omitempty"`
	OS           *string       `json:"os,omitempty"`
	Status       *DeviceStatus `json:"status,omitempty"`
	ErrorMessage *string       `json:"errorMessage,omitempty"`
}

// CompanyStats is the derived per-company aggregate. Companies are not
// stored entities; ID is just the 1-based position in the sorted listing.
type CompanyStats struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DeviceCount int    `json:"deviceCount"`
}

// DashboardStats are the KPI counters derived from the visible device list.
type DashboardStats struct {
	Total   int `json:"total"`
	Online  int `json:"online"`
	Offline int `json:"offline"`
	Warning int `json:"warning"`
}
