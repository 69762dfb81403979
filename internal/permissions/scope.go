package permissions

import "github.com/google/uuid"

// Scope is the set of seller organizations a caller may act on for one
// capability. Platform admins get the unbounded scope.
type Scope struct {
	all bool
	ids map[uuid.UUID]struct{}
}

func AllSellers() Scope {
	return Scope{all: true}
}

func SellerScope(ids ...uuid.UUID) Scope {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return Scope{ids: set}
}

// All reports whether the scope is unbounded.
func (s Scope) All() bool { return s.all }

// Empty reports whether the scope grants nothing.
func (s Scope) Empty() bool { return !s.all && len(s.ids) == 0 }

func (s Scope) Contains(id uuid.UUID) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// IDs returns the explicit seller ids; nil for the unbounded scope.
func (s Scope) IDs() []uuid.UUID {
	if s.all {
		return nil
	}
	out := make([]uuid.UUID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}
