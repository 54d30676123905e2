// Package roles holds the role hierarchy and the ownership-or-privilege
// policy applied to every item read and mutation.
package roles

import "strings"

// Role is a user privilege level.
type Role string

const (
	RoleBasic  Role = "basic"
	RoleAdmin  Role = "admin"
	RoleMod    Role = "mod"
	RoleMaster Role = "master"
)

// rank orders roles by ascending privilege. Unknown roles rank below basic.
var rank = map[Role]int{
	RoleBasic:  1,
	RoleAdmin:  2,
	RoleMod:    3,
	RoleMaster: 4,
}

// All lists every known role in ascending privilege order.
func All() []Role {
	return []Role{RoleBasic, RoleAdmin, RoleMod, RoleMaster}
}

// Parse maps a raw string onto a known role. The second result is false
// for unknown values.
func Parse(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := rank[r]
	return r, ok
}

// Valid reports whether the role is one of the known levels.
func (r Role) Valid() bool {
	_, ok := rank[r]
	return ok
}

// Outranks reports whether r carries strictly more privilege than other.
func (r Role) Outranks(other Role) bool {
	return rank[r] > rank[other]
}

func (r Role) String() string { return string(r) }
