package scheduler

import "sync"

// statusCache dedupes expiry warnings across ticks. Lifecycle state itself
// stays derived; only the last warned days-left value is cached, in process,
// so a restart may repeat at most one warning per template.
type statusCache struct {
	mu         sync.Mutex
	warnedDays map[string]int
}

func newStatusCache() *statusCache {
	return &statusCache{warnedDays: make(map[string]int)}
}

// shouldWarn reports whether a warning for the given days-until-expiry value
// has not been emitted yet. Repeating the same warning on every tick of the
// same day would spam recipients.
func (c *statusCache) shouldWarn(templateID string, days int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.warnedDays[templateID]; ok && last == days {
		return false
	}
	c.warnedDays[templateID] = days
	return true
}

func (c *statusCache) forget(templateID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.warnedDays, templateID)
}
