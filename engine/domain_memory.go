package engine

import (
	"sync"
	"time"
)

type domainEntry struct {
	engineName string
	expiresAt  time.Time // zero means never
}

// DomainMemory remembers which engine worked for each domain.
// It is safe for concurrent use.
type DomainMemory struct {
	mu    sync.RWMutex
	store map[string]domainEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewDomainMemory creates a DomainMemory. A ttl of zero keeps entries for the
// lifetime of the process.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	return &DomainMemory{
		store: make(map[string]domainEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the remembered engine name for a domain, or "" if not found or expired.
func (dm *DomainMemory) Get(domain string) string {
	if dm == nil {
		return ""
	}
	dm.mu.RLock()
	entry, ok := dm.store[domain]
	dm.mu.RUnlock()
	if !ok {
		return ""
	}
	if !entry.expiresAt.IsZero() && dm.now().After(entry.expiresAt) {
		dm.Delete(domain)
		return ""
	}
	return entry.engineName
}

// Set records which engine succeeded for a domain.
func (dm *DomainMemory) Set(domain, engineName string) {
	if dm == nil {
		return
	}
	entry := domainEntry{engineName: engineName}
	if dm.ttl > 0 {
		entry.expiresAt = dm.now().Add(dm.ttl)
	}
	dm.mu.Lock()
	dm.store[domain] = entry
	dm.mu.Unlock()
}

// Delete forgets a domain, e.g. after the remembered engine fails.
func (dm *DomainMemory) Delete(domain string) {
	if dm == nil {
		return
	}
	dm.mu.Lock()
	delete(dm.store, domain)
	dm.mu.Unlock()
}
