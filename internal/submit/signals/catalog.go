// Package signals holds the fixed observation vocabularies a scout can tag a
// property with.
package signals

import (
	"errors"
	"fmt"
)

// Category is one of the two disjoint vocabularies.
type Category string

const (
	Contractor Category = "contractor"
	RealEstate Category = "realestate"
)

var ErrUnknownSignal = errors.New("UNKNOWN_SIGNAL")

var contractorSignals = []string{
	"Roof Damage",
	"Overgrown Lawn",
	"Peeling Paint",
	"Old HVAC Unit",
	"Broken Fence",
	"Clogged Gutters",
	"Broken Windows",
	"Damaged Siding",
}

var realEstateSignals = []string{
	"Appears Vacant",
	"Mail Piling Up",
	"FSBO Sign",
	"Code Violation Notice",
	"Foreclosure Notice",
	"Boarded Up",
	"For Rent Sign",
	"Estate Sale Sign",
}

// Catalog returns the display-ordered vocabulary of a category. The returned
// slice is a copy.
func Catalog(c Category) []string {
	var src []string
	switch c {
	case Contractor:
		src = contractorSignals
	case RealEstate:
		src = realEstateSignals
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Categories lists the categories in display order.
func Categories() []Category {
	return []Category{Contractor, RealEstate}
}

func (c Category) Title() string {
	switch c {
	case Contractor:
		return "Contractor Signals"
	case RealEstate:
		return "Real Estate Signals"
	}
	return string(c)
}

// Contains reports whether signal belongs to the category's vocabulary.
func Contains(c Category, signal string) bool {
	return indexOf(c, signal) >= 0
}

func indexOf(c Category, signal string) int {
	var src []string
	switch c {
	case Contractor:
		src = contractorSignals
	case RealEstate:
		src = realEstateSignals
	}
	for i, s := range src {
		if s == signal {
			return i
		}
	}
	return -1
}

// Set is a selection from one category. The zero value is not usable; use NewSet.
type Set struct {
	category Category
	selected map[string]struct{}
}

func NewSet(c Category) Set {
	return Set{category: c, selected: make(map[string]struct{})}
}

func (s Set) Category() Category { return s.category }

// Toggle flips membership of signal and reports whether it is now selected.
func (s Set) Toggle(signal string) (bool, error) {
	if !Contains(s.category, signal) {
		return false, fmt.Errorf("%w: %q is not a %s signal", ErrUnknownSignal, signal, s.category)
	}
	if _, ok := s.selected[signal]; ok {
		delete(s.selected, signal)
		return false, nil
	}
	s.selected[signal] = struct{}{}
	return true, nil
}

func (s Set) Has(signal string) bool {
	_, ok := s.selected[signal]
	return ok
}

func (s Set) Len() int { return len(s.selected) }

// Ordered returns the selected signals in catalog order.
func (s Set) Ordered() []string {
	out := make([]string, 0, len(s.selected))
	for _, sig := range Catalog(s.category) {
		if s.Has(sig) {
			out = append(out, sig)
		}
	}
	return out
}

// Clone returns an independent copy of the set.
func (s Set) Clone() Set {
	c := NewSet(s.category)
	for k := range s.selected {
		c.selected[k] = struct{}{}
	}
	return c
}
