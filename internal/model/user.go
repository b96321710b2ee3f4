package model

type UserRole string

const (
	Employee      UserRole = "employee"
	Supervisor    UserRole = "supervisor"
	LocationAdmin UserRole = "location_admin"
	OrgAdmin      UserRole = "org_admin"
)

// CanApprove reports whether the role may countersign or deny training records.
func (r UserRole) CanApprove() bool {
	switch r {
	case Supervisor, LocationAdmin, OrgAdmin:
		return true
	}
	return false
}

// CanManageCourses reports whether the role may create, assign and delete courses.
func (r UserRole) CanManageCourses() bool {
	return r == LocationAdmin || r == OrgAdmin
}

// OrganizationWide reports whether the role is exempt from location scoping.
func (r UserRole) OrganizationWide() bool {
	return r == OrgAdmin
}

type User struct {
	BaseModel
	OrganizationID uint          `gorm:"index;not null" json:"organizationId"`
	Organization   *Organization `json:"-"`
	LocationID     *uint         `gorm:"index" json:"locationId"`
	Location       *Location     `json:"-"`
	Name           string        `gorm:"size:100;not null" json:"name"`
	Email          string        `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash   string        `gorm:"size:100;not null" json:"-"`
	Role           UserRole      `gorm:"size:20;not null" json:"role"`
	Department     string        `gorm:"size:100;index" json:"department"`
	Position       string        `gorm:"size:100;index" json:"position"`
	IsActive       bool          `json:"isActive"`
}

func (User) TableName() string {
	return "users"
}
