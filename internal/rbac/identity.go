package rbac

// Identity is the caller of a request, decoded from its bearer token.
// The zero value is the anonymous caller.
type Identity struct {
	UserID   string
	Username string
	Role     Role
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Identity { return Identity{} }

// IsAuthenticated reports whether the caller presented a valid token.
func (i Identity) IsAuthenticated() bool { return i.UserID != "" }

// Subject is the role the policy evaluates for this caller.
func (i Identity) Subject() Role {
	if !i.IsAuthenticated() || !i.Role.Valid() {
		return RoleAnonymous
	}
	return i.Role
}

// OwnershipOf compares the caller with the owner id of an object.
func (i Identity) OwnershipOf(ownerID string) Ownership {
	if i.IsAuthenticated() && ownerID != "" && ownerID == i.UserID {
		return Own
	}
	return Other
}
