package model

type Organization struct {
	BaseModel
	Name string `gorm:"size:255;not null" json:"name"`
}

func (Organization) TableName() string {
	return "organizations"
}

type Location struct {
	BaseModel
	OrganizationID uint          `gorm:"index;not null" json:"organizationId"`
	Organization   *Organization `json:"-"`
	Name           string        `gorm:"size:255;not null" json:"name"`
}

func (Location) TableName() string {
	return "locations"
}
