package persistence

import (
	"github.com/jinzhu/gorm"
)

// LiveRecords is the single predicate for "active and not soft-deleted".
// Every lookup and uniqueness query over users, tenants, projects and roles
// must apply it instead of repeating the two conditions ad hoc.
func LiveRecords(db *gorm.DB) *gorm.DB {
	return db.Where("active = ? AND deleted = ?", true, false)
}

// NotDeleted filters out soft-deleted rows only. Assignments carry a disabled
// flag with business meaning of its own, so they are not covered by LiveRecords.
func NotDeleted(db *gorm.DB) *gorm.DB {
	return db.Where("deleted = ?", false)
}

// ActiveRecords filters reference data which is deactivated rather than deleted.
func ActiveRecords(db *gorm.DB) *gorm.DB {
	return db.Where("active = ?", true)
}
