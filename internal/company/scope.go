package company

import "gorm.io/gorm"

// Scope constrains a query to one tenant. Every repository query on tenant
// owned tables goes through this; cross-tenant reads are never possible.
func Scope(companyID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("company_id = ?", companyID)
	}
}
