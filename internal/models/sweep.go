package models

import (
	"net/netip"
	"sort"
	"time"
)

// SweepResult is the output of one discovery sweep. Records are kept in the
// order their enrichment completed.
type SweepResult struct {
	Range     string        `json:"range" yaml:"range"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Elapsed   time.Duration `json:"elapsed" yaml:"elapsed"`
	Records   []HostRecord  `json:"records" yaml:"records"`

	// Err holds the discovery diagnostic when the discovery collaborator
	// failed. The result is empty in that case.
	Err error `json:"-" yaml:"-"`
}

func (r SweepResult) Len() int { return len(r.Records) }

// Sorted returns a copy of the records ordered by numeric address.
func (r SweepResult) Sorted() []HostRecord {
	out := make([]HostRecord, len(r.Records))
	copy(out, r.Records)
	SortByAddress(out)
	return out
}

// CountTier counts records rated exactly t.
func (r SweepResult) CountTier(t RiskTier) int {
	n := 0
	for _, rec := range r.Records {
		if rec.Tier == t {
			n++
		}
	}
	return n
}

// Rate is hosts enriched per second.
func (r SweepResult) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(len(r.Records)) / r.Elapsed.Seconds()
}

// SortByAddress sorts records by numeric IPv4 address; unparseable
// addresses sort last in lexical order.
func SortByAddress(records []HostRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return CompareAddr(records[i].IP, records[j].IP) < 0
	})
}

// CompareAddr compares two textual addresses numerically.
func CompareAddr(a, b string) int {
	ai, aerr := netip.ParseAddr(a)
	bi, berr := netip.ParseAddr(b)
	switch {
	case aerr == nil && berr == nil:
		return ai.Compare(bi)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
