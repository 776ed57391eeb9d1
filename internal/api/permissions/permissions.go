// Package permissions is the single place where access decisions are made.
// Handlers and middleware ask it; nothing else compares role strings.
package permissions

// Role is the access tier stored on a user record.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole maps a stored role string onto a Role. Unknown values are
// rejected rather than defaulted so a corrupted record never gains access.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleUser, RoleModerator, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// CanModerate reports whether the role may act on other users' content.
func (r Role) CanModerate() bool {
	return r == RoleModerator || r == RoleAdmin
}

// CanAdministrate reports whether the role may curate the catalog and
// manage user accounts.
func (r Role) CanAdministrate() bool {
	return r == RoleAdmin
}

// Actor is the resolved identity of the caller for one request.
// The zero value is an anonymous actor.
type Actor struct {
	ID            string
	Username      string
	Role          Role
	Authenticated bool
}

// Anonymous returns the actor for an unauthenticated request.
func Anonymous() Actor {
	return Actor{}
}

// Decision is the outcome of an access check. Unauthenticated and
// forbidden are distinct outcomes: handlers answer 401 for the former
// and 403 for the latter, never collapsing the two.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) Allowed() bool {
	return d == Allow
}

// CatalogWrite gates unsafe methods on categories, genres and titles.
// Reads are open to anyone and never reach this check.
func CatalogWrite(a Actor) Decision {
	if !a.Authenticated {
		return DenyUnauthenticated
	}
	if !a.Role.CanAdministrate() {
		return DenyForbidden
	}
	return Allow
}

// ManageUsers gates the admin user-management surface, reads included.
func ManageUsers(a Actor) Decision {
	if !a.Authenticated {
		return DenyUnauthenticated
	}
	if !a.Role.CanAdministrate() {
		return DenyForbidden
	}
	return Allow
}

// ContentWrite gates unsafe methods on a review or comment. authorID is
// the owning user's id, nil when the author account has been deleted.
// Evaluation order: anonymous is denied, the author is allowed, then
// moderators and admins, then everyone else is denied.
func ContentWrite(a Actor, authorID *string) Decision {
	if !a.Authenticated {
		return DenyUnauthenticated
	}
	if authorID != nil && *authorID == a.ID {
		return Allow
	}
	if a.Role.CanModerate() {
		return Allow
	}
	return DenyForbidden
}

// ContentCreate gates creating a review or comment: any authenticated
// user may post, anonymous may not.
func ContentCreate(a Actor) Decision {
	if !a.Authenticated {
		return DenyUnauthenticated
	}
	return Allow
}
