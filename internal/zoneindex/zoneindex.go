// Package zoneindex implements a name-lowercased two-level mapping
// from owner name to RR type to RRset, with glue production for NS
// answers and TTL normalization to the minimum TTL observed within an
// RRset. It backs both the resolver's positive cache and local
// authoritative answers seeded from a zone file.
package zoneindex

import (
	"sort"
	"strings"
	"sync"

	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/presentation"
	"github.com/nazarii-m/dnscore/internal/rrdata"
	"github.com/nazarii-m/dnscore/internal/rrframe"
)

// Index is the name -> type -> RRset map. The zero value is ready to
// use.
type Index struct {
	mu   sync.RWMutex
	data map[string]map[rrdata.Type][]rrframe.Record
}

func key(n names.Name) string {
	return strings.Join(n.Lower().Labels, "\x00")
}

// Insert appends rec to the RRset for (rec.Name, rec.Type),
// normalizing the whole RRset's TTL down to the minimum TTL observed
// across its members.
func (idx *Index) Insert(rec rrframe.Record) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.insertLocked(rec)
}

func (idx *Index) insertLocked(rec rrframe.Record) {
	if idx.data == nil {
		idx.data = map[string]map[rrdata.Type][]rrframe.Record{}
	}
	k := key(rec.Name)
	byType, ok := idx.data[k]
	if !ok {
		byType = map[rrdata.Type][]rrframe.Record{}
		idx.data[k] = byType
	}
	set := append(byType[rec.Type], rec)
	min := set[0].TTL
	for _, r := range set[1:] {
		if r.TTL < min {
			min = r.TTL
		}
	}
	for i := range set {
		set[i].TTL = min
	}
	byType[rec.Type] = set
}

// InsertAll inserts every record in recs.
func (idx *Index) InsertAll(recs []rrframe.Record) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, r := range recs {
		idx.insertLocked(r)
	}
}

// Lookup returns the RRset for (name, typ), and whether one exists.
func (idx *Index) Lookup(name names.Name, typ rrdata.Type) ([]rrframe.Record, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	byType, ok := idx.data[key(name)]
	if !ok {
		return nil, false
	}
	set, ok := byType[typ]
	return set, ok
}

// Glue returns the A/AAAA RRsets indexed at each of the given NS
// target names, flattened into one record slice, for attaching to an
// NS referral's additional section.
func (idx *Index) Glue(targets []names.Name) []rrframe.Record {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []rrframe.Record
	for _, t := range targets {
		byType, ok := idx.data[key(t)]
		if !ok {
			continue
		}
		out = append(out, byType[rrdata.TypeA]...)
		out = append(out, byType[rrdata.TypeAAAA]...)
	}
	return out
}

// Delete removes the RRset for (name, typ).
func (idx *Index) Delete(name names.Name, typ rrdata.Type) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if byType, ok := idx.data[key(name)]; ok {
		delete(byType, typ)
		if len(byType) == 0 {
			delete(idx.data, key(name))
		}
	}
}

// Names returns every owner name present in the index, sorted for
// deterministic iteration (e.g. a debug dump or zone transfer walk).
func (idx *Index) Names() []names.Name {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	seen := map[string]names.Name{}
	for _, byType := range idx.data {
		for _, set := range byType {
			for _, r := range set {
				seen[key(r.Name)] = r.Name
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]names.Name, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}

// LoadZone seeds idx from a presentation-format zone-file stream, one
// record per logical line. There is no $ORIGIN handling: every line
// must carry a fully-qualified owner name.
func (idx *Index) LoadZone(text string) error {
	for _, line := range presentation.JoinContinuations(text) {
		rec, err := presentation.ParseRR(line)
		if err != nil {
			return err
		}
		idx.Insert(rec)
	}
	return nil
}
