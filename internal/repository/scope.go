package repository

import (
	"vetlms_backend/internal/model"

	"gorm.io/gorm"
)

// scoped restricts a query on table to the organization and, when set, the location.
func scoped(db *gorm.DB, table string, scope model.Scope) *gorm.DB {
	db = db.Where(table+".organization_id = ?", scope.OrganizationID)
	if scope.LocationID != nil {
		db = db.Where(table+".location_id = ?", *scope.LocationID)
	}
	return db
}
