package contextcache

import (
	"container/list"
	"sync"
	"time"

	"github.com/sandevgo/carebot/internal/core"
)

type entry struct {
	subjectID string
	record    core.ContextRecord
	fetchedAt time.Time
}

// Cache maps a subject ID to the last whole context record assembled for it.
// An entry is served only while now-fetchedAt < ttl; expired entries are
// treated as absent even when still stored. When capacity is exceeded the
// least-recently-used entry is evicted, which may discard a not-yet-expired
// record; capacity bounds memory, not freshness.
//
// The lock is held only for map and list manipulation, never across source
// fetches, so one subject's aggregation pass cannot stall another's read.
type Cache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	now      func() time.Time

	order   *list.List // front = most recently used
	entries map[string]*list.Element
}

func New(ttl time.Duration, capacity int) *Cache {
	return NewWithClock(ttl, capacity, time.Now)
}

// NewWithClock injects the time source; freshness boundaries are exercised in
// tests through it.
func NewWithClock(ttl time.Duration, capacity int, now func() time.Time) *Cache {
	return &Cache{
		ttl:      ttl,
		capacity: capacity,
		now:      now,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the cached record for subjectID if present and not expired.
// Expired entries are removed on read.
func (c *Cache) Get(subjectID string) (core.ContextRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[subjectID]
	if !ok {
		return core.ContextRecord{}, false
	}

	ent := el.Value.(*entry)
	if c.now().Sub(ent.fetchedAt) >= c.ttl {
		c.order.Remove(el)
		delete(c.entries, subjectID)
		return core.ContextRecord{}, false
	}

	c.order.MoveToFront(el)
	return copyRecord(ent.record), true
}

// Put overwrites any prior entry for subjectID unconditionally and stamps it
// with the current time.
func (c *Cache) Put(subjectID string, record core.ContextRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[subjectID]; ok {
		ent := el.Value.(*entry)
		ent.record = copyRecord(record)
		ent.fetchedAt = c.now()
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&entry{
		subjectID: subjectID,
		record:    copyRecord(record),
		fetchedAt: c.now(),
	})
	c.entries[subjectID] = el

	for c.capacity > 0 && c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).subjectID)
	}
}

// Len reports the number of physically stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// copyRecord deep-copies the record so callers can never mutate cached state.
func copyRecord(r core.ContextRecord) core.ContextRecord {
	out := r
	if r.Medications != nil {
		out.Medications = make([]string, len(r.Medications))
		copy(out.Medications, r.Medications)
	}
	if r.Diagnoses != nil {
		out.Diagnoses = make([]string, len(r.Diagnoses))
		copy(out.Diagnoses, r.Diagnoses)
	}
	if r.LabResults != nil {
		out.LabResults = make(map[string]string, len(r.LabResults))
		for k, v := range r.LabResults {
			out.LabResults[k] = v
		}
	}
	return out
}
