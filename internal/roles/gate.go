package roles

// Gate is a coarse per-endpoint allow-list, independent of ownership.
// It only answers whether a role may invoke an operation at all; record
// visibility stays with Scope.
type Gate []Role

// Admits reports whether the role passes the gate. An empty gate admits
// everyone.
func (g Gate) Admits(r Role) bool {
	if len(g) == 0 {
		return true
	}
	for _, allowed := range g {
		if allowed == r {
			return true
		}
	}
	return false
}

// Strings returns the gated role names for query parameter binding.
func (g Gate) Strings() []string {
	out := make([]string, len(g))
	for i, r := range g {
		out[i] = string(r)
	}
	return out
}
