package compliance

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/ukydev/fleet-compliance/internal/models"
)

// DefaultCacheTTL is how long a composite result stays fresh.
const DefaultCacheTTL = 300 * time.Second

// cacheDomainKey separates compliance cache keys from any other keyed hash in the
// process. ASCII "fleet.compliance.result", zero-padded to 32 bytes.
var cacheDomainKey = [32]byte{
	'f', 'l', 'e', 'e', 't', '.', 'c', 'o', 'm', 'p', 'l', 'i', 'a', 'n', 'c', 'e',
	'.', 'r', 'e', 's', 'u', 'l', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// cacheInstantLayout is the resolution of cache keys. Time restrictions are
// evaluated per wall-clock minute, so two instants share a result only when
// they fall in the same minute at the same offset.
const cacheInstantLayout = "2006-01-02T15:04Z07:00"

// CacheKey is the deterministic key for a vehicle, zone and wall-clock minute of at.
func CacheKey(vehicleID string, zone models.ZoneType, at time.Time) string {
	hasher, err := blake3.NewKeyed(cacheDomainKey[:])
	if err != nil {
		panic("compliance: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write([]byte(vehicleID + "\x00" + string(zone) + "\x00" + at.Format(cacheInstantLayout)))
	return hex.EncodeToString(hasher.Sum(nil))
}

type cacheEntry struct {
	vehicleID string
	result    ComplianceResult
	expires   time.Time
}

// Cache memoizes composite compliance results per vehicle, zone and minute.
// Callers must Invalidate a vehicle whenever its compliance record changes.
type Cache struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	entries   map[string]cacheEntry
	byVehicle map[string]map[string]struct{}
	hits      uint64
	misses    uint64
}

// NewCache creates a cache. A non-positive ttl selects DefaultCacheTTL.
func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:       ttl,
		now:       now,
		entries:   make(map[string]cacheEntry),
		byVehicle: make(map[string]map[string]struct{}),
	}
}

// Get returns a fresh cached result. Expired entries are evicted.
func (c *Cache) Get(vehicleID string, zone models.ZoneType, date time.Time) (ComplianceResult, bool) {
	key := CacheKey(vehicleID, zone, date)
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return ComplianceResult{}, false
	}
	if !c.now().Before(e.expires) {
		c.evict(key, e.vehicleID)
		c.misses++
		return ComplianceResult{}, false
	}
	c.hits++
	return e.result, true
}

// Put stores a result.
func (c *Cache) Put(vehicleID string, zone models.ZoneType, date time.Time, result ComplianceResult) {
	key := CacheKey(vehicleID, zone, date)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{vehicleID: vehicleID, result: result, expires: c.now().Add(c.ttl)}
	keys, ok := c.byVehicle[vehicleID]
	if !ok {
		keys = make(map[string]struct{})
		c.byVehicle[vehicleID] = keys
	}
	keys[key] = struct{}{}
}

// Invalidate drops every cached result for the vehicle and returns how many were dropped.
func (c *Cache) Invalidate(vehicleID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := c.byVehicle[vehicleID]
	for key := range keys {
		delete(c.entries, key)
	}
	delete(c.byVehicle, vehicleID)
	return len(keys)
}

// Len is the number of entries held, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns the hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) evict(key, vehicleID string) {
	delete(c.entries, key)
	if keys, ok := c.byVehicle[vehicleID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.byVehicle, vehicleID)
		}
	}
}
