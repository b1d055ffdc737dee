// Package launch holds the launch-record table and the two pure views the
// dashboard is built on. Nothing in this package performs I/O beyond parsing
// a reader handed to it.
package launch

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// AllSites is the site filter value that selects every launch site.
const AllSites = "ALL"

var (
	// ErrEmptyDataset is returned when a source yields no launch records.
	ErrEmptyDataset = errors.New("launch: dataset has no records")
	// ErrReservedSite is returned when a record's site equals AllSites, which
	// would make that site unselectable on its own.
	ErrReservedSite = errors.New("launch: site name " + AllSites + " is reserved")
)

// Record is one launch attempt.
type Record struct {
	Site            string  `json:"launch_site"`
	PayloadMassKg   float64 `json:"payload_mass_kg"`
	BoosterCategory string  `json:"booster_version_category"`
	Success         bool    `json:"success"`
}

// Class returns the outcome flag as the 0/1 value used in the source data.
func (r Record) Class() int {
	if r.Success {
		return 1
	}
	return 0
}

// PayloadBounds is the global payload range computed at load time.
type PayloadBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Mid returns the midpoint of the bounds.
func (b PayloadBounds) Mid() float64 { return (b.Min + b.Max) / 2 }

// Contains reports whether v lies within the bounds, inclusive.
func (b PayloadBounds) Contains(v float64) bool { return v >= b.Min && v <= b.Max }

// Dataset is the immutable, in-memory launch table. A Dataset is safe for
// concurrent readers; no method mutates it after NewDataset returns.
type Dataset struct {
	records  []Record
	sites    []string
	boosters []string
	bounds   PayloadBounds
}

// NewDataset validates records and builds the read-only table.
func NewDataset(records []Record) (*Dataset, error) {
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}
	ds := &Dataset{records: make([]Record, len(records))}
	copy(ds.records, records)

	siteSet := make(map[string]struct{})
	boosterSet := make(map[string]struct{})
	ds.bounds = PayloadBounds{Min: math.Inf(1), Max: math.Inf(-1)}
	for i, r := range ds.records {
		if r.Site == "" {
			return nil, fmt.Errorf("launch: record %d has no launch site", i)
		}
		if r.Site == AllSites {
			return nil, fmt.Errorf("record %d: %w", i, ErrReservedSite)
		}
		if math.IsNaN(r.PayloadMassKg) || math.IsInf(r.PayloadMassKg, 0) {
			return nil, fmt.Errorf("launch: record %d payload is not finite", i)
		}
		if r.PayloadMassKg < 0 {
			return nil, fmt.Errorf("launch: record %d payload %g is negative", i, r.PayloadMassKg)
		}
		siteSet[r.Site] = struct{}{}
		boosterSet[r.BoosterCategory] = struct{}{}
		ds.bounds.Min = math.Min(ds.bounds.Min, r.PayloadMassKg)
		ds.bounds.Max = math.Max(ds.bounds.Max, r.PayloadMassKg)
	}
	ds.sites = sortedKeys(siteSet)
	ds.boosters = sortedKeys(boosterSet)
	return ds, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Records returns a copy of all records in load order.
func (d *Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Sites returns the sorted unique launch sites.
func (d *Dataset) Sites() []string { return append([]string(nil), d.sites...) }

// BoosterCategories returns the sorted unique booster version categories.
func (d *Dataset) BoosterCategories() []string { return append([]string(nil), d.boosters...) }

// Bounds returns the global payload bounds.
func (d *Dataset) Bounds() PayloadBounds { return d.bounds }

// HasSite reports whether site is one of the dataset's launch sites.
func (d *Dataset) HasSite(site string) bool {
	i := sort.SearchStrings(d.sites, site)
	return i < len(d.sites) && d.sites[i] == site
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
