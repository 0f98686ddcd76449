// Package simulator pkg/simulator/generator.go produces synthetic fleets for
// seeding and demos.
package simulator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/R0eii/Tucan/pkg/models"
)

// Companies is the fixed company pool used by the generator.
var Companies = []string{
	"Acme Corporation",
	"Globex Industries",
	"Umbrella Corp",
	"Stark Industries",
	"Wayne Enterprises",
}

var (
	namePrefixes = []string{"Phone", "Device", "Mobile", "Unit", "Terminal", "Station"}
	locations    = []string{"NYC", "LA", "CHI", "HOU", "PHX", "TLV", "LON", "BER", "PAR"}
	departments  = []string{"Sales", "Support", "Ops", "HR", "IT", "Engineering"}
	errorPool    = []string{"Connection timeout", "Battery critical", "Signal lost", "Hardware fault"}
)

const (
	recentHours  = 24
	longTermDays = 90
)

// Generate builds n synthetic devices with sequential DEV-%05d ids starting
// at 1, randomized health and fully populated history windows.
func Generate(n int, rng *rand.Rand, now time.Time) []models.Device {
	devices := make([]models.Device, 0, n)

	for i := 0; i < n; i++ {
		statusRand := rng.Float64()
		status := models.StatusOK

		var errMsg *string

		switch {
		case statusRand > 0.92:
			status = models.StatusError
			errMsg = strPtr(errorPool[rng.Intn(len(errorPool))])
		case statusRand > 0.85:
			status = models.StatusWarning
			errMsg = strPtr(msgHighLatency)
		}

		var lastIncident *time.Time
		if status != models.StatusOK {
			incident := now
			lastIncident = &incident
		}

		devices = append(devices, models.Device{
			ID:              fmt.Sprintf("DEV-%05d", i+1),
			Name:            fmt.Sprintf("%s-%d", namePrefixes[rng.Intn(len(namePrefixes))], i),
			IP:              fmt.Sprintf("192.168.%d.%d", rng.Intn(10), rng.Intn(255)),
			MAC:             fmt.Sprintf("00:1A:2B:3C:%02d:%02d", rng.Intn(99), rng.Intn(99)),
			Company:         Companies[rng.Intn(len(Companies))],
			Status:          status,
			ErrorMessage:    errMsg,
			LastUpdate:      now,
			Department:      departments[rng.Intn(len(departments))],
			Location:        locations[rng.Intn(len(locations))],
			DeviceModel:     "Gen-X Pro",
			OS:              "v3.0.1",
			Battery:         float64(rng.Intn(100)),
			SignalStrength:  float64(rng.Intn(100)),
			Uptime:          float64(rng.Intn(1000)),
			LastIncident:    lastIncident,
			RecentHistory:   Snapshots(recentHours, false, rng, now),
			LongTermHistory: Snapshots(longTermDays, true, rng, now),
		})
	}

	return devices
}

// Snapshots builds count+1 samples ending at now, oldest first. Hourly
// samples carry a binary uptime (down roughly 5% of the time); daily samples
// use the same sampling, read as a coarse daily average.
func Snapshots(count int, daily bool, rng *rand.Rand, now time.Time) []models.HealthSnap {
	snaps := make([]models.HealthSnap, 0, count+1)

	step := time.Hour
	if daily {
		step = 24 * time.Hour
	}

	for i := count; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * step)

		label := fmt.Sprintf("%d:00", ts.Hour())
		if daily {
			label = ts.Format("1/2/2006")
		}

		up := 1.0
		if rng.Float64() > 0.95 {
			up = 0
		}

		snaps = append(snaps, models.HealthSnap{
			Timestamp: label,
			Uptime:    up,
			Battery:   float64(rng.Intn(60) + 40),
			Signal:    float64(rng.Intn(50) + 50),
		})
	}

	return snaps
}
