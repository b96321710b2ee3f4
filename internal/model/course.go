package model

import (
	"gorm.io/datatypes"
)

type ContentType string

const (
	ContentVideo      ContentType = "video"
	ContentPDF        ContentType = "pdf"
	ContentPowerPoint ContentType = "powerpoint"
	ContentText       ContentType = "text"
)

// RequiresLocalizedContent reports whether a published course of this type
// must carry a content URL for every supported language.
func (c ContentType) RequiresLocalizedContent() bool {
	switch c {
	case ContentVideo, ContentPDF, ContentPowerPoint:
		return true
	}
	return false
}

const DefaultPassPercentage = 80

type Course struct {
	BaseModel
	OrganizationID uint          `gorm:"index;not null" json:"organizationId"`
	Organization   *Organization `json:"-"`
	LocationID     *uint         `gorm:"index" json:"locationId"`
	Location       *Location     `json:"-"`

	Title           string      `gorm:"size:255;not null" json:"title"`
	Description     string      `gorm:"type:text" json:"description"`
	ContentType     ContentType `gorm:"size:20;not null" json:"contentType"`
	ContentURLEn    string      `gorm:"size:1024" json:"contentUrlEn"`
	ContentURLEs    string      `gorm:"size:1024" json:"contentUrlEs"`
	ContentURLFr    string      `gorm:"size:1024" json:"contentUrlFr"`
	DurationMinutes int         `json:"durationMinutes"`
	PassPercentage  int         `json:"passPercentage"`
	IsMandatory     bool        `json:"isMandatory"`
	IsPublished     bool        `gorm:"index" json:"isPublished"`
	IsActive        bool        `json:"isActive"`

	// Targeting rules used when the course is assigned.
	AssignedDepartments   datatypes.JSONSlice[string] `json:"assignedDepartments"`
	AssignedPositions     datatypes.JSONSlice[string] `json:"assignedPositions"`
	AssignToEntireCompany bool                        `json:"assignToEntireCompany"`
	ExceptionPositions    datatypes.JSONSlice[string] `json:"exceptionPositions"`
}

func (Course) TableName() string {
	return "courses"
}
