package resolver

import (
	"strings"
	"sync"
	"time"

	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/rrdata"
	"github.com/nazarii-m/dnscore/internal/rrframe"
	"github.com/nazarii-m/dnscore/internal/zoneindex"
)

// Disposition records a negative cache entry's flavor.
type Disposition int

const (
	// DispositionNXDomain caches a whole-name nonexistence.
	DispositionNXDomain Disposition = iota
	// DispositionNoData caches a name-exists-but-type-doesn't result.
	DispositionNoData
)

type negativeEntry struct {
	disposition Disposition
	soa         *rrframe.Record
	expiresAt   time.Time
}

// Cache layers TTL-expiry tracking and RFC 2308 negative caching over
// a zoneindex.Index, which itself has no notion of wall-clock
// insertion time: it only carries the static TTL value read off the
// wire. The expiry bookkeeping lives here rather than in zoneindex
// because non-resolver callers (an authoritative zone load) have no
// use for wall-clock freshness at all.
type Cache struct {
	mu        sync.Mutex
	positive  *zoneindex.Index
	expiresAt map[string]time.Time
	negative  map[string]negativeEntry
}

// NewCache returns an empty, ready-to-use Cache.
func NewCache() *Cache {
	return &Cache{
		positive:  &zoneindex.Index{},
		expiresAt: map[string]time.Time{},
		negative:  map[string]negativeEntry{},
	}
}

func cacheKey(name names.Name, typ rrdata.Type, class uint16) string {
	var b strings.Builder
	for _, l := range name.Lower().Labels {
		b.WriteString(l)
		b.WriteByte(0)
	}
	b.WriteByte('|')
	writeUint(&b, uint64(typ))
	b.WriteByte('|')
	writeUint(&b, uint64(class))
	return b.String()
}

func writeUint(b *strings.Builder, v uint64) {
	if v == 0 {
		b.WriteByte('0')
		return
	}
	var digits [20]byte
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	b.Write(digits[i:])
}

// LookupResult is what Lookup returns for a cache hit.
type LookupResult struct {
	Records     []rrframe.Record
	Negative    bool
	Disposition Disposition
	SOA         *rrframe.Record
}

// Lookup returns a still-fresh positive or negative entry for
// (name, typ, class). The resolver consults it before every S_QUERY.
func (c *Cache) Lookup(name names.Name, typ rrdata.Type, class uint16) (LookupResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	key := cacheKey(name, typ, class)

	if exp, ok := c.expiresAt[key]; ok {
		if now.Before(exp) {
			if set, ok := c.positive.Lookup(name, typ); ok {
				return LookupResult{Records: set}, true
			}
		} else {
			delete(c.expiresAt, key)
			c.positive.Delete(name, typ)
		}
	} else if set, ok := c.positive.Lookup(name, typ); ok && len(set) > 0 {
		// An RRset seeded into the index directly has no expiry yet:
		// its TTL starts counting at this first lookup.
		c.expiresAt[key] = now.Add(time.Duration(set[0].TTL) * time.Second)
		return LookupResult{Records: set}, true
	}

	if neg, ok := c.negative[key]; ok {
		if now.Before(neg.expiresAt) {
			return LookupResult{Negative: true, Disposition: neg.disposition, SOA: neg.soa}, true
		}
		delete(c.negative, key)
	}
	return LookupResult{}, false
}

// StorePositive inserts recs (a single RRset for one (name,type)) and
// tracks its expiry from the RRset's minimum TTL. recs as handed to
// us is the caller's own slice, not zoneindex's normalized copy, so
// the minimum is computed here rather than trusted off recs[0].
func (c *Cache) StorePositive(recs []rrframe.Record) {
	if len(recs) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positive.InsertAll(recs)
	minTTL := recs[0].TTL
	for _, r := range recs[1:] {
		if r.TTL < minTTL {
			minTTL = r.TTL
		}
	}
	key := cacheKey(recs[0].Name, recs[0].Type, recs[0].Class)
	c.expiresAt[key] = time.Now().Add(time.Duration(minTTL) * time.Second)
}

// StoreNegative caches an NXDOMAIN/NODATA disposition for
// (name, typ, class), clamped to the SOA MINIMUM per RFC 2308.
func (c *Cache) StoreNegative(name names.Name, typ rrdata.Type, class uint16, disposition Disposition, soa *rrframe.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ttl := uint32(0)
	if soa != nil {
		ttl = soaMinimum(soa)
		if soa.TTL < ttl {
			ttl = soa.TTL
		}
	}
	key := cacheKey(name, typ, class)
	c.negative[key] = negativeEntry{
		disposition: disposition,
		soa:         soa,
		expiresAt:   time.Now().Add(time.Duration(ttl) * time.Second),
	}
}

// soaMinimum reads the MINIMUM field out of a decoded SOA record,
// used to clamp negative-cache TTLs per RFC 2308 §5.
func soaMinimum(soa *rrframe.Record) uint32 {
	if soa == nil {
		return 0
	}
	if v, ok := soa.Data.Fields["Minttl"]; ok {
		if m, ok := v.(uint32); ok {
			return m
		}
	}
	return 0
}

// Index exposes the underlying zoneindex.Index for callers that want
// direct glue/name enumeration access, or that seed it (e.g. with
// zoneindex.LoadZone) before resolving; Lookup serves a seeded RRset
// with its TTL counted from the first lookup that finds it.
func (c *Cache) Index() *zoneindex.Index {
	return c.positive
}
