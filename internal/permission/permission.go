// Package permission holds the closed, process-wide catalog of permissions
// that can be attached to roles. Ids are stable and stored in the database;
// names are the wire representation.
package permission

import (
	"errors"
	"fmt"
	"sort"

	"github.com/frahmantamala/rogue-contacts/internal"
)

// Kind identifies the resource a permission applies to.
type Kind string

const (
	KindBusiness     Kind = "business"
	KindOrganization Kind = "organization"
)

type ID int

type Permission struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

const (
	BusinessView        ID = 1
	BusinessManageRoles ID = 2
)

const (
	OrganizationView             ID = 1
	OrganizationManageRoles      ID = 2
	OrganizationManageBusinesses ID = 3
)

var (
	ErrInvalidPermissionName = errors.New("invalid permission name")
	ErrUnknownKind           = errors.New("unknown permission kind")
)

var catalog = map[Kind][]Permission{
	KindBusiness: {
		{ID: BusinessView, Name: "ViewBusiness"},
		{ID: BusinessManageRoles, Name: "ManageRoles"},
	},
	KindOrganization: {
		{ID: OrganizationView, Name: "ViewOrganization"},
		{ID: OrganizationManageRoles, Name: "ManageRoles"},
		{ID: OrganizationManageBusinesses, Name: "ManageBusinesses"},
	},
}

var (
	byName = map[Kind]map[string]Permission{}
	byID   = map[Kind]map[ID]Permission{}
)

func init() {
	for kind, perms := range catalog {
		names := make(map[string]Permission, len(perms))
		ids := make(map[ID]Permission, len(perms))
		for _, p := range perms {
			names[p.Name] = p
			ids[p.ID] = p
		}
		byName[kind] = names
		byID[kind] = ids
	}
}

// Kinds lists every resource kind in the catalog.
func Kinds() []Kind {
	return []Kind{KindBusiness, KindOrganization}
}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := catalog[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// All returns the permissions of a kind ordered by id. The result is a copy.
func All(kind Kind) []Permission {
	perms := catalog[kind]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

// Parse looks a permission up by its exact, case-sensitive name.
func Parse(kind Kind, name string) (Permission, error) {
	p, ok := byName[kind][name]
	if !ok {
		return Permission{}, fmt.Errorf("%w: %q", ErrInvalidPermissionName, name)
	}
	return p, nil
}

func Lookup(kind Kind, id ID) (Permission, bool) {
	p, ok := byID[kind][id]
	return p, ok
}

// ParseAll converts names into a de-duplicated set and reports every name
// that is not in the catalog, in input order.
func ParseAll(kind Kind, names []string) (Set, []string) {
	set := NewSet()
	var invalid []string
	for _, name := range names {
		p, err := Parse(kind, name)
		if err != nil {
			invalid = append(invalid, name)
			continue
		}
		set.Add(p.ID)
	}
	return set, invalid
}

// ParseNames is ParseAll with the invalid names folded into one aggregated
// validation error against field.
func ParseNames(kind Kind, field string, names []string) (Set, error) {
	set, invalid := ParseAll(kind, names)
	if len(invalid) == 0 {
		return set, nil
	}
	errs := make([]internal.ValidationError, 0, len(invalid))
	for _, name := range invalid {
		errs = append(errs, internal.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("Invalid permission name %q.", name),
			Code:    string(internal.ErrCodeInvalidPermission),
		})
	}
	return nil, internal.NewAggregateValidationError(errs)
}

// Set is a set of permission ids of a single kind.
type Set map[ID]struct{}

func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Add(id ID) {
	s[id] = struct{}{}
}

func (s Set) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// IDs returns the members sorted ascending.
func (s Set) IDs() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Names maps the members to catalog names, ordered by id. Ids unknown to the
// catalog are skipped.
func (s Set) Names(kind Kind) []string {
	names := make([]string, 0, len(s))
	for _, id := range s.IDs() {
		if p, ok := Lookup(kind, id); ok {
			names = append(names, p.Name)
		}
	}
	return names
}

func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Has(id) {
			return false
		}
	}
	return true
}
