package analysis

import (
	"sort"

	"netsweep/internal/models"
)

// VendorStat counts hosts per hardware vendor.
type VendorStat struct {
	Vendor string
	Hosts  int
}

// PopulationStats summarises a sweep for the console and reports.
type PopulationStats struct {
	Total    int
	ByTier   map[models.RiskTier]int
	ByOS     map[models.OSClass]int
	Vendors  []VendorStat
	OpenPort map[int]int
}

// Summarize aggregates the records of a sweep.
func Summarize(records []models.HostRecord) PopulationStats {
	s := PopulationStats{
		Total:    len(records),
		ByTier:   make(map[models.RiskTier]int),
		ByOS:     make(map[models.OSClass]int),
		OpenPort: make(map[int]int),
	}
	vendors := make(map[string]int)
	for _, r := range records {
		s.ByTier[r.Tier]++
		s.ByOS[r.OS]++
		vendors[r.Vendor]++
		for _, p := range r.Ports.Ports() {
			s.OpenPort[p]++
		}
	}

	for v, n := range vendors {
		s.Vendors = append(s.Vendors, VendorStat{Vendor: v, Hosts: n})
	}
	sort.Slice(s.Vendors, func(i, j int) bool {
		if s.Vendors[i].Hosts != s.Vendors[j].Hosts {
			return s.Vendors[i].Hosts > s.Vendors[j].Hosts
		}
		return s.Vendors[i].Vendor < s.Vendors[j].Vendor
	})
	return s
}

// OSStat counts hosts per OS class.
type OSStat struct {
	OS    models.OSClass
	Hosts int
}

// PortStat counts hosts with a given port open.
type PortStat struct {
	Port  int
	Hosts int
}

// OSBreakdown returns the OS classes seen, most common first.
func (s PopulationStats) OSBreakdown() []OSStat {
	out := make([]OSStat, 0, len(s.ByOS))
	for os, n := range s.ByOS {
		out = append(out, OSStat{OS: os, Hosts: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hosts != out[j].Hosts {
			return out[i].Hosts > out[j].Hosts
		}
		return out[i].OS < out[j].OS
	})
	return out
}

// TopPorts returns at most n ports by the number of hosts exposing them,
// ties broken by port number.
func (s PopulationStats) TopPorts(n int) []PortStat {
	out := make([]PortStat, 0, len(s.OpenPort))
	for p, hosts := range s.OpenPort {
		out = append(out, PortStat{Port: p, Hosts: hosts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hosts != out[j].Hosts {
			return out[i].Hosts > out[j].Hosts
		}
		return out[i].Port < out[j].Port
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// TopVendors returns at most n vendor counts, most common first.
func (s PopulationStats) TopVendors(n int) []VendorStat {
	if n >= len(s.Vendors) {
		return s.Vendors
	}
	return s.Vendors[:n]
}
