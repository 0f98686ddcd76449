// Package dashboard pkg/dashboard/controller.go owns the client-side view of
// the fleet: the last authoritative snapshot plus the derived state (filters,
// selection, change highlights) layered on top of it.
package dashboard

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/R0eii/Tucan/pkg/models"
)

const (
	defaultDebounce     = 300 * time.Millisecond
	defaultHighlightTTL = 60 * time.Second
)

// Status filter values accepted by SetStatusFilter.
const (
	FilterAll     = "all"
	FilterOnline  = "online"
	FilterOffline = "offline"
	FilterWarning = "warning"
)

// Controller mediates all fetch/refresh/mutation traffic and reconciles
// optimistic single-device updates with the next authoritative list fetch.
// The server is always the source of truth; local merges are a latency
// optimization only.
type Controller struct {
	api    API
	logger *zap.Logger

	mu              sync.RWMutex
	devices         []models.Device // last authoritative snapshot (+ optimistic merges)
	company         string
	searchRaw       string
	searchDebounced string
	statusFilter    string
	selectedID      string
	changed         map[string]time.Time
	loading         bool
	refreshing      bool
	lastFetched     time.Time

	// generation fences list fetches: a completing fetch only lands if no
	// newer fetch has started since ("last filter change wins").
	generation atomic.Uint64

	debounceMu sync.Mutex
	debounce   *time.Timer

	debounceDelay   time.Duration
	refreshInterval time.Duration
	highlightTTL    time.Duration
}

// NewController creates a controller with the given initial company filter.
func NewController(api API, company string, refreshInterval time.Duration, logger *zap.Logger) *Controller {
	if refreshInterval == 0 {
		refreshInterval = 30 * time.Second
	}

	return &Controller{
		api:             api,
		logger:          logger,
		company:         company,
		statusFilter:    FilterAll,
		changed:         make(map[string]time.Time),
		loading:         true,
		debounceDelay:   defaultDebounce,
		refreshInterval: refreshInterval,
		highlightTTL:    defaultHighlightTTL,
	}
}

// Run drives the periodic refresh cycle: trigger the server-side simulation,
// then re-fetch the authoritative list. Blocks until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	c.Fetch(ctx)

	ticker := time.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Fetch synchronously reloads the device list for the current company
// filter. A fetch that loses the generation race is discarded so a slower,
// older request can never overwrite a newer one.
func (c *Controller) Fetch(ctx context.Context) {
	gen := c.generation.Add(1)

	c.mu.RLock()
	company := c.company
	c.mu.RUnlock()

	list, err := c.api.ListDevices(ctx, company, "")
	if err != nil {
		// Leave the previous snapshot untouched on transient failures.
		c.logger.Warn("device fetch failed", zap.Error(err))

		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()

		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation.Load() {
		// A newer fetch started while this one was in flight; drop it.
		return
	}

	c.markChangedLocked(list)
	c.devices = list
	c.loading = false
	c.lastFetched = time.Now()
	c.reselectLocked()
}

// Refresh runs one simulation+fetch cycle.
func (c *Controller) Refresh(ctx context.Context) {
	c.mu.Lock()
	c.refreshing = true
	c.mu.Unlock()

	if _, err := c.api.RefreshSimulation(ctx); err != nil {
		c.logger.Warn("simulation trigger failed", zap.Error(err))
	} else {
		c.Fetch(ctx)
	}

	c.mu.Lock()
	c.refreshing = false
	c.mu.Unlock()
}

// SetCompany switches the server-side filter and re-fetches, discarding any
// optimistic edits belonging to the previous filter.
func (c *Controller) SetCompany(ctx context.Context, company string) {
	c.mu.Lock()
	if c.company == company {
		c.mu.Unlock()
		return
	}

	c.company = company
	c.loading = true
	c.mu.Unlock()

	c.Fetch(ctx)
}

// SetSearch updates the raw search text. The effective filter only follows
// after the debounce window passes with no further keystrokes; each call
// cancels and restarts the timer, so the last keystroke wins.
func (c *Controller) SetSearch(query string) {
	c.mu.Lock()
	c.searchRaw = query
	c.mu.Unlock()

	c.debounceMu.Lock()
	defer c.debounceMu.Unlock()

	if c.debounce != nil {
		c.debounce.Stop()
	}

	c.debounce = time.AfterFunc(c.debounceDelay, func() {
		c.mu.Lock()
		c.searchDebounced = query
		c.mu.Unlock()
	})
}

func (c *Controller) SetStatusFilter(filter string) {
	c.mu.Lock()
	c.statusFilter = filter
	c.mu.Unlock()
}

// Select marks a device as the open detail view.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	c.selectedID = id
	c.mu.Unlock()
}

// Selected returns a copy of the selected device, if it is still present.
func (c *Controller) Selected() (models.Device, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.devices {
		if c.devices[i].ID == c.selectedID {
			return c.devices[i], true
		}
	}

	return models.Device{}, false
}

// Restart issues a restart and optimistically merges the returned record.
func (c *Controller) Restart(ctx context.Context, id string) error {
	device, err := c.api.RestartDevice(ctx, id)
	if err != nil {
		c.logger.Warn("restart failed", zap.String("id", id), zap.Error(err))
		return err
	}

	c.applyDevice(*device)

	return nil
}

// Retry issues a reconnection attempt and merges the result.
func (c *Controller) Retry(ctx context.Context, id string) error {
	device, err := c.api.RetryDevice(ctx, id)
	if err != nil {
		c.logger.Warn("retry failed", zap.String("id", id), zap.Error(err))
		return err
	}

	c.applyDevice(*device)

	return nil
}

// Edit patches a device and merges the result.
func (c *Controller) Edit(ctx context.Context, id string, patch models.DevicePatch) error {
	device, err := c.api.UpdateDevice(ctx, id, patch)
	if err != nil {
		c.logger.Warn("edit failed", zap.String("id", id), zap.Error(err))
		return err
	}

	c.applyDevice(*device)

	return nil
}

// Delete removes a device server-side and drops it locally.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.api.DeleteDevice(ctx, id); err != nil {
		c.logger.Warn("delete failed", zap.String("id", id), zap.Error(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.devices {
		if c.devices[i].ID == id {
			c.devices = append(c.devices[:i], c.devices[i+1:]...)
			break
		}
	}

	if c.selectedID == id {
		c.selectedID = ""
	}

	return nil
}

// VisibleDevices applies the debounced search and the status filter over a
// copy of the snapshot. The canonical list is never mutated by filtering.
func (c *Controller) VisibleDevices() []models.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	query := strings.ToLower(c.searchDebounced)
	out := make([]models.Device, 0, len(c.devices))

	for _, d := range c.devices {
		if query != "" &&
			!strings.Contains(strings.ToLower(d.Name), query) &&
			!strings.Contains(strings.ToLower(d.IP), query) {
			continue
		}

		switch c.statusFilter {
		case "", FilterAll:
		case FilterOnline:
			if d.Status != models.StatusOK {
				continue
			}
		case FilterOffline:
			if d.Status != models.StatusError {
				continue
			}
		case FilterWarning:
			if d.Status != models.StatusWarning {
				continue
			}
		}

		out = append(out, d)
	}

	return out
}

// Devices returns a copy of the full authoritative snapshot.
func (c *Controller) Devices() []models.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Device, len(c.devices))
	copy(out, c.devices)

	return out
}

// Alerts returns every non-ok device.
func (c *Controller) Alerts() []models.Device {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.Device

	for _, d := range c.devices {
		if d.Status != models.StatusOK {
			out = append(out, d)
		}
	}

	return out
}

// Stats derives the KPI counters from the full snapshot.
func (c *Controller) Stats() models.DashboardStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := models.DashboardStats{Total: len(c.devices)}

	for _, d := range c.devices {
		switch d.Status {
		case models.StatusOK:
			stats.Online++
		case models.StatusError:
			stats.Offline++
		case models.StatusWarning:
			stats.Warning++
		}
	}

	return stats
}

// ChangedIDs lists devices that changed within the highlight window.
func (c *Controller) ChangedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneChangedLocked(time.Now())

	ids := make([]string, 0, len(c.changed))
	for id := range c.changed {
		ids = append(ids, id)
	}

	return ids
}

func (c *Controller) Company() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.company
}

func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.loading
}

func (c *Controller) Refreshing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.refreshing
}

func (c *Controller) LastFetched() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastFetched
}

// applyDevice merges a single authoritative record into the snapshot (and,
// via selectedID, into the open detail view) without waiting for the next
// periodic refresh.
func (c *Controller) applyDevice(device models.Device) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.devices {
		if c.devices[i].ID == device.ID {
			c.devices[i] = device
			c.changed[device.ID] = time.Now()

			return
		}
	}

	// Not in the current filter view; nothing to merge.
}

// markChangedLocked diffs the incoming snapshot against the current one and
// records ids whose status or lastUpdate moved. Callers hold c.mu.
func (c *Controller) markChangedLocked(incoming []models.Device) {
	now := time.Now()
	c.pruneChangedLocked(now)

	prev := make(map[string]*models.Device, len(c.devices))
	for i := range c.devices {
		prev[c.devices[i].ID] = &c.devices[i]
	}

	for i := range incoming {
		old, ok := prev[incoming[i].ID]
		if !ok {
			continue
		}

		if old.Status != incoming[i].Status || !old.LastUpdate.Equal(incoming[i].LastUpdate) {
			c.changed[incoming[i].ID] = now
		}
	}
}

// pruneChangedLocked drops highlight entries older than the TTL so the set
// cannot grow without bound. Callers hold c.mu.
func (c *Controller) pruneChangedLocked(now time.Time) {
	for id, at := range c.changed {
		if now.Sub(at) > c.highlightTTL {
			delete(c.changed, id)
		}
	}
}

// reselectLocked clears the selection when the selected device left the
// snapshot (deleted, or filtered out by a company switch). Callers hold c.mu.
func (c *Controller) reselectLocked() {
	if c.selectedID == "" {
		return
	}

	for i := range c.devices {
		if c.devices[i].ID == c.selectedID {
			return
		}
	}

	c.selectedID = ""
}
