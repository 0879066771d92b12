package session

import (
	"sync"

	"github.com/apimeister/unpatched-server/internal/domain"
)

// hostCell is the session-local "current host snapshot" shared by the
// three session tasks. Readers clone and release quickly; the collector
// is the sole writer, on host self-description.
type hostCell struct {
	mu   sync.RWMutex
	host *domain.Host
}

func newHostCell(h *domain.Host) *hostCell {
	return &hostCell{host: h}
}

// Get returns a shallow copy of the current host, or nil if none has
// been set yet.
func (c *hostCell) Get() *domain.Host {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.host == nil {
		return nil
	}
	cp := *c.host
	return &cp
}

// Set replaces the snapshot, e.g. after a host:... self-description or
// a checkin reload.
func (c *hostCell) Set(h *domain.Host) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.host = h
}
