// Package simulator computes synthetic device health transitions. Every
// function here is pure: state in, state out, with an injected *rand.Rand so
// callers (and tests) control the randomness.
package simulator

import (
	"math/rand"
	"time"

	"github.com/R0eii/Tucan/pkg/models"
)

const (
	// TickProbability is the chance each device is perturbed per fleet tick.
	TickProbability = 0.05

	// RetrySuccessProbability is the chance a retry clears the error.
	RetrySuccessProbability = 0.8

	// batteryJitter is the half-width of the uniform battery delta per tick.
	batteryJitter = 5.0

	msgHighLatency       = "High Latency"
	msgConnectionTimeout = "Connection Timeout"
)

// Tick applies the fleet-wide perturbation: each device is touched with
// TickProbability. A healthy device breaks (warning or error, even odds); a
// broken device recovers. Touched devices also get a battery jitter and a
// fresh LastUpdate. Untouched devices are returned as-is, with LastUpdate
// deliberately unbumped so "most recently updated" ordering and change
// highlighting only reflect real transitions.
//
// Returns the changed devices and their ids so the caller can skip no-op
// writes.
func Tick(devices []models.Device, rng *rand.Rand, now time.Time) ([]models.Device, []string) {
	changed := make([]models.Device, 0, len(devices)/10)
	ids := make([]string, 0, cap(changed))

	for i := range devices {
		if rng.Float64() >= TickProbability {
			continue
		}

		d := devices[i]

		if d.Status == models.StatusOK {
			// Break it
			if rng.Float64() < 0.5 {
				d.Status = models.StatusWarning
				d.ErrorMessage = strPtr(msgHighLatency)
			} else {
				d.Status = models.StatusError
				d.ErrorMessage = strPtr(msgConnectionTimeout)
			}

			incident := now
			d.LastIncident = &incident
		} else {
			// Fix it
			d.Status = models.StatusOK
			d.ErrorMessage = nil
		}

		d.Battery = clampPercent(d.Battery + (rng.Float64()*2*batteryJitter - batteryJitter))
		d.LastUpdate = now

		changed = append(changed, d)
		ids = append(ids, d.ID)
	}

	return changed, ids
}

// Retry models a reconnection attempt: RetrySuccessProbability chance of
// clearing the error, otherwise status and message are left alone. LastUpdate
// always advances.
func Retry(device models.Device, rng *rand.Rand, now time.Time) models.Device {
	if rng.Float64() > 1-RetrySuccessProbability {
		device.Status = models.StatusOK
		device.ErrorMessage = nil
	}

	device.LastUpdate = now

	return device
}

// Restart models a hard reset: always succeeds, clears the error and zeroes
// the uptime counter.
func Restart(device models.Device, now time.Time) models.Device {
	device.Status = models.StatusOK
	device.ErrorMessage = nil
	device.Uptime = 0
	device.LastUpdate = now

	return device
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 100 {
		return 100
	}

	return v
}

func strPtr(s string) *string { return &s }
