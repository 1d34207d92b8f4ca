// Package network holds the strongly typed macroscopic network model: nodes,
// undirected links, directed link segments and the link segment types that
// encode per-mode access. Entities are owned by a Layer and are only ever
// replaced by the link breaking pass.
package network

import (
	"fmt"
	"sort"
	"strings"
)

// Mode is a transport mode that can be granted or denied access on a link
// segment.
type Mode uint8

const (
	ModeCar Mode = iota + 1
	ModeBus
	ModeBicycle
	ModeFoot
	ModeMotorcycle
	ModeHeavyGoods
	ModeTrain
	ModeTram
	ModeLightRail
	ModeFerry
)

func (m Mode) String() string {
	switch m {
	case ModeCar:
		return "car"
	case ModeBus:
		return "bus"
	case ModeBicycle:
		return "bicycle"
	case ModeFoot:
		return "foot"
	case ModeMotorcycle:
		return "motorcycle"
	case ModeHeavyGoods:
		return "hgv"
	case ModeTrain:
		return "train"
	case ModeTram:
		return "tram"
	case ModeLightRail:
		return "light_rail"
	case ModeFerry:
		return "ferry"
	}
	panic(fmt.Sprintf("unknown Mode %d", m))
}

// ModeSet is a mutable set of modes. The zero value is not usable, construct
// via NewModeSet.
type ModeSet map[Mode]struct{}

func NewModeSet(modes ...Mode) ModeSet {
	s := make(ModeSet, len(modes))
	for _, m := range modes {
		s[m] = struct{}{}
	}
	return s
}

func (s ModeSet) Add(modes ...Mode) {
	for _, m := range modes {
		s[m] = struct{}{}
	}
}

func (s ModeSet) Remove(modes ...Mode) {
	for _, m := range modes {
		delete(s, m)
	}
}

func (s ModeSet) Contains(m Mode) bool {
	_, ok := s[m]
	return ok
}

func (s ModeSet) Empty() bool {
	return len(s) == 0
}

func (s ModeSet) Clone() ModeSet {
	out := make(ModeSet, len(s))
	for m := range s {
		out[m] = struct{}{}
	}
	return out
}

// Intersect returns the modes present in both sets.
func (s ModeSet) Intersect(other ModeSet) ModeSet {
	out := NewModeSet()
	for m := range s {
		if other.Contains(m) {
			out.Add(m)
		}
	}
	return out
}

func (s ModeSet) Equal(other ModeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for m := range s {
		if !other.Contains(m) {
			return false
		}
	}
	return true
}

// Sorted returns the modes in ascending order, for deterministic iteration.
func (s ModeSet) Sorted() []Mode {
	out := make([]Mode, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Key returns a canonical string representation usable as a map key.
func (s ModeSet) Key() string {
	modes := s.Sorted()
	parts := make([]string, len(modes))
	for i, m := range modes {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}

func (s ModeSet) String() string {
	return "{" + s.Key() + "}"
}
