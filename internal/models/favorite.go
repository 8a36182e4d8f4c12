package models

import "time"

// Favorite is a bookmark edge from a user to a company.
// At most one edge exists per (user, company) pair.
type Favorite struct {
	Base
	UserID      uint      `gorm:"not null;index;uniqueIndex:idx_user_company" json:"usuarioId"`
	CompanyID   uint      `gorm:"not null;index;uniqueIndex:idx_user_company" json:"empresaId"`
	FavoritedAt time.Time `gorm:"not null" json:"dataFavoritado"`

	Company Company `gorm:"foreignKey:CompanyID" json:"empresa"`
}
