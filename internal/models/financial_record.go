package models

// Months lists the canonical month names in calendar order.
// Wire values are the Portuguese names used by the original forms.
var Months = []string{
	"Janeiro", "Fevereiro", "Março", "Abril",
	"Maio", "Junho", "Julho", "Agosto",
	"Setembro", "Outubro", "Novembro", "Dezembro",
}

var monthIndex = func() map[string]int {
	m := make(map[string]int, len(Months))
	for i, name := range Months {
		m[name] = i + 1
	}
	return m
}()

// MonthIndex returns the 1-based calendar position of a canonical month
// name, or 0 if the name is not recognized.
func MonthIndex(name string) int {
	return monthIndex[name]
}

// FinancialRecord is one month's reported revenue figure for a company.
// A (company, month, year) triple is unique.
type FinancialRecord struct {
	Base
	CompanyID uint    `gorm:"not null;index;uniqueIndex:idx_company_month_year" json:"empresaId"`
	Month     string  `gorm:"size:20;not null;uniqueIndex:idx_company_month_year" json:"mes"`
	Value     float64 `gorm:"not null" json:"valor"`
	Year      int     `gorm:"not null;default:2024;uniqueIndex:idx_company_month_year" json:"ano"`
}
