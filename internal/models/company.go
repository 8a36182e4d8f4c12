package models

// Company represents a company listed on the marketplace.
// OwnerID records the creating user so that ownership-gated update and
// delete can be enforced; it is nil for rows that predate the column.
type Company struct {
	Base
	Name        string  `gorm:"not null;index" json:"name"`
	Description string  `gorm:"size:1000" json:"descricao"`
	ImageURL    string  `json:"img,omitempty"`
	Price       float64 `gorm:"not null" json:"preco"`
	Sector      string  `gorm:"size:100;index" json:"setor,omitempty"`
	OwnerID     *uint   `gorm:"index" json:"ownerId,omitempty"`

	FinancialRecords []FinancialRecord `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"dadosFinanceiros,omitempty"`
	Favorites        []Favorite        `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"-"`
}
