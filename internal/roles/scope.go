package roles

// Scope is the structured visibility predicate produced for a caller.
// It expresses the disjunction "the caller owns the record, or the
// caller's role outranks the owner's role". The same value drives both
// single-row guards and collection filters; repositories never rebuild
// the rule themselves.
type Scope struct {
	// CallerID always grants access to records the caller owns.
	CallerID int64
	// OwnerRoles lists the owner roles the caller may additionally
	// reach. Empty for basic callers.
	OwnerRoles []Role
	// Unrestricted is set for master callers only.
	Unrestricted bool
}

// ScopeFor builds the visibility scope for a caller. The rule is the
// same for find-all, find-one, update and delete:
//
//	basic  -> own records only
//	admin  -> own records, plus records owned by basic users
//	mod    -> own records, plus records owned by basic or admin users
//	master -> everything
func ScopeFor(callerID int64, callerRole Role) Scope {
	s := Scope{CallerID: callerID}
	switch callerRole {
	case RoleMaster:
		s.Unrestricted = true
	default:
		for _, owner := range All() {
			if callerRole.Outranks(owner) {
				s.OwnerRoles = append(s.OwnerRoles, owner)
			}
		}
	}
	return s
}

// Allows evaluates the scope in memory against a record's owner. The SQL
// rendering in SQLFilter must stay equivalent to this function.
func (s Scope) Allows(ownerID int64, ownerRole Role) bool {
	if s.Unrestricted || ownerID == s.CallerID {
		return true
	}
	for _, r := range s.OwnerRoles {
		if r == ownerRole {
			return true
		}
	}
	return false
}

// ownerRoleStrings returns the reachable owner roles as plain strings for
// parameter binding.
func (s Scope) ownerRoleStrings() []string {
	out := make([]string, len(s.OwnerRoles))
	for i, r := range s.OwnerRoles {
		out[i] = string(r)
	}
	return out
}
