package roles

import "strconv"

// SQLFilter renders the scope as a parameterized SQL predicate over the
// given owner-id and owner-role columns. New bind values are appended to
// args and referenced by position, so the fragment composes with whatever
// WHERE clause the calling repository has built so far.
func (s Scope) SQLFilter(ownerIDCol, ownerRoleCol string, args *[]any) string {
	if s.Unrestricted {
		return "TRUE"
	}
	*args = append(*args, s.CallerID)
	own := ownerIDCol + " = $" + strconv.Itoa(len(*args))
	if len(s.OwnerRoles) == 0 {
		return "(" + own + ")"
	}
	*args = append(*args, s.ownerRoleStrings())
	return "(" + own + " OR " + ownerRoleCol + " = ANY($" + strconv.Itoa(len(*args)) + "))"
}
