package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxPort = 65535

// PortSet is an immutable, ascending, duplicate-free set of TCP ports.
type PortSet struct {
	ports []int
}

// NewPortSet builds a PortSet from arbitrary input. Values outside
// [0,65535] are dropped.
func NewPortSet(ports ...int) PortSet {
	if len(ports) == 0 {
		return PortSet{}
	}
	seen := make(map[int]struct{}, len(ports))
	out := make([]int, 0, len(ports))
	for _, p := range ports {
		if p < 0 || p > maxPort {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Ints(out)
	return PortSet{ports: out}
}

// PortRange returns the inclusive range [from, to] as a PortSet.
func PortRange(from, to int) PortSet {
	if from > to {
		return PortSet{}
	}
	ports := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		ports = append(ports, p)
	}
	return NewPortSet(ports...)
}

func (s PortSet) Len() int { return len(s.ports) }

func (s PortSet) IsEmpty() bool { return len(s.ports) == 0 }

// Contains reports whether port p is in the set.
func (s PortSet) Contains(p int) bool {
	i := sort.SearchInts(s.ports, p)
	return i < len(s.ports) && s.ports[i] == p
}

// ContainsAny reports whether at least one of ports is in the set.
func (s PortSet) ContainsAny(ports ...int) bool {
	for _, p := range ports {
		if s.Contains(p) {
			return true
		}
	}
	return false
}

// Ports returns a copy of the ports in ascending order.
func (s PortSet) Ports() []int {
	out := make([]int, len(s.ports))
	copy(out, s.ports)
	return out
}

// String renders the set the way the console and reports show it,
// "22, 80, 443" or "None".
func (s PortSet) String() string {
	if len(s.ports) == 0 {
		return "None"
	}
	parts := make([]string, len(s.ports))
	for i, p := range s.ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}

func (s PortSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Ports())
}

func (s *PortSet) UnmarshalJSON(data []byte) error {
	var ports []int
	if err := json.Unmarshal(data, &ports); err != nil {
		return err
	}
	*s = NewPortSet(ports...)
	return nil
}

func (s PortSet) MarshalYAML() (interface{}, error) {
	return s.Ports(), nil
}

func (s *PortSet) UnmarshalYAML(node *yaml.Node) error {
	var ports []int
	if err := node.Decode(&ports); err != nil {
		return err
	}
	*s = NewPortSet(ports...)
	return nil
}
