package auth

import (
	"maps"
	"slices"
)

// PermissionSet is a set of permission codes.
type PermissionSet map[string]struct{}

// NewPermissionSet returns a set holding codes.
func NewPermissionSet(codes ...string) PermissionSet {
	s := make(PermissionSet, len(codes))
	s.Add(codes...)

	return s
}

// Add inserts codes.
func (s PermissionSet) Add(codes ...string) {
	for _, c := range codes {
		s[c] = struct{}{}
	}
}

// Remove deletes codes.
func (s PermissionSet) Remove(codes ...string) {
	for _, c := range codes {
		delete(s, c)
	}
}

// Has reports whether code is in the set.
func (s PermissionSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the codes in ascending order.
func (s PermissionSet) Codes() []string {
	return slices.Sorted(maps.Keys(s))
}
