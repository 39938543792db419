// Package roles maps identity-provider role claims onto the roles the
// application understands.
package roles

import "sort"

const (
	Admin = "admin"
	User  = "user"
)

var known = map[string]struct{}{
	Admin: {},
	User:  {},
}

// Set is an unordered set of known role names.
type Set map[string]struct{}

// FilterUseful keeps the known roles of raw. Duplicates collapse and unknown
// names are dropped without error.
func FilterUseful(raw []string) Set {
	s := make(Set, len(known))
	for _, r := range raw {
		if _, ok := known[r]; ok {
			s[r] = struct{}{}
		}
	}
	return s
}

func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Sorted returns the roles in lexical order, the form they are persisted in.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

func (s Set) Clone() Set {
	c := make(Set, len(s))
	for r := range s {
		c[r] = struct{}{}
	}
	return c
}
