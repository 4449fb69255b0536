package model

import "strings"

// Role is the coarse permission level carried in an access token.
type Role string

const (
	RoleStudent  Role = "STUDENT"
	RoleIncharge Role = "INCHARGE"
	RoleAdmin    Role = "ADMIN"
)

// ParseRole normalises a role claim.  The legacy names used by the old
// front end ("BI" for building incharge, "PO" for program office) are
// accepted as aliases.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "STUDENT":
		return RoleStudent, true
	case "INCHARGE", "BI", "BUILDINGINCHARGE":
		return RoleIncharge, true
	case "ADMIN", "PO", "PROGRAMOFFICE":
		return RoleAdmin, true
	}
	return "", false
}

// Actor identifies who is making a request.  It is built once per request
// from the bearer token and passed explicitly into every service call.
type Actor struct {
	ID   uint64
	Role Role
}

// IsAdmin reports whether the actor may act on every building.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// CanApprove reports whether the actor's role may approve or reject
// bookings at all.  Building-level checks are done by the authorizer.
func (a Actor) CanApprove() bool { return a.Role == RoleAdmin || a.Role == RoleIncharge }
