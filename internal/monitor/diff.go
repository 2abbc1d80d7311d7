package monitor

import (
	"sort"

	"netsweep/internal/models"
)

// Change is a host whose hardware address differs between two sweeps.
type Change struct {
	IP  string
	Old string
	New string
}

// Changes is the difference between two populations, each list sorted by
// address.
type Changes struct {
	Iteration  int
	Joined     []models.HostRecord
	Left       []models.HostRecord
	Changed    []Change
	Population int
}

// Empty reports whether nothing changed.
func (c Changes) Empty() bool {
	return len(c.Joined) == 0 && len(c.Left) == 0 && len(c.Changed) == 0
}

// Diff compares two populations keyed by address.
func Diff(previous, current map[string]models.HostRecord) Changes {
	c := Changes{Population: len(current)}
	for ip, rec := range current {
		old, ok := previous[ip]
		if !ok {
			c.Joined = append(c.Joined, rec)
			continue
		}
		if old.MAC != rec.MAC {
			c.Changed = append(c.Changed, Change{IP: ip, Old: old.MAC, New: rec.MAC})
		}
	}
	for ip, rec := range previous {
		if _, ok := current[ip]; !ok {
			c.Left = append(c.Left, rec)
		}
	}

	models.SortByAddress(c.Joined)
	models.SortByAddress(c.Left)
	sort.SliceStable(c.Changed, func(i, j int) bool {
		return models.CompareAddr(c.Changed[i].IP, c.Changed[j].IP) < 0
	})
	return c
}

// Population indexes records by address; a later duplicate wins.
func Population(records []models.HostRecord) map[string]models.HostRecord {
	out := make(map[string]models.HostRecord, len(records))
	for _, r := range records {
		out[r.Key()] = r
	}
	return out
}
