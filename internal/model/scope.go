package model

// Scope limits reads and writes to one organization and, when LocationID is
// set, to one location inside it.
type Scope struct {
	OrganizationID uint
	LocationID     *uint
}

// OrganizationScope covers every location of an organization.
func OrganizationScope(orgID uint) Scope {
	return Scope{OrganizationID: orgID}
}

// LocationScope covers a single location.
func LocationScope(orgID, locationID uint) Scope {
	return Scope{OrganizationID: orgID, LocationID: &locationID}
}

// Actor is the authenticated caller of a service operation.
type Actor struct {
	UserID         uint
	Role           UserRole
	OrganizationID uint
	LocationID     *uint
}

// Scope is the visibility of the actor. Organization-wide roles and users
// without a home location see the whole organization.
func (a Actor) Scope() Scope {
	if a.Role.OrganizationWide() || a.LocationID == nil {
		return OrganizationScope(a.OrganizationID)
	}
	return LocationScope(a.OrganizationID, *a.LocationID)
}
