package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"vpe/internal/cache"
	apperrors "vpe/internal/errors"
	"vpe/internal/models"
	"vpe/internal/pagination"
)

const defaultRecordYear = 2024

// companyService handles company-related business logic.
type companyService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewCompanyService creates a new CompanyServicer. Writes invalidate the
// status-count cache; a nil cache disables that.
func NewCompanyService(db *gorm.DB, c *cache.Cache) CompanyServicer {
	return &companyService{db: db, cache: c}
}

// CreateCompany creates a new marketplace listing. Name and price are
// re-checked here even though the handler validates first.
func (s *companyService) CreateCompany(ownerID *uint, input CompanyInput) (*models.Company, error) {
	if input.Name == "" || input.Price <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "name and price are required")
	}

	company := &models.Company{
		Name:        input.Name,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Price:       input.Price,
		Sector:      input.Sector,
		OwnerID:     ownerID,
	}

	if err := s.db.Create(company).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	invalidateStatusCounts(s.cache)

	return company, nil
}

// ListCompanies returns a paginated list of companies ordered by name,
// optionally filtered by name or sector substring (case-insensitive) and
// price bounds. Financial records are embedded in canonical order.
func (s *companyService) ListCompanies(filter CompanyFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Company], error) {
	page.Normalize()

	base := s.db.Model(&models.Company{})
	if filter.Name != "" {
		base = base.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Sector != "" {
		base = base.Where("LOWER(sector) LIKE ?", "%"+strings.ToLower(filter.Sector)+"%")
	}
	if filter.MinPrice != nil {
		base = base.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		base = base.Where("price <= ?", *filter.MaxPrice)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var companies []models.Company
	if err := base.Preload("FinancialRecords").
		Order("name ASC").
		Scopes(pagination.Scope(page)).
		Find(&companies).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range companies {
		sortFinancialRecords(companies[i].FinancialRecords)
	}

	result := pagination.NewPageResponse(companies, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCompanyByID retrieves a company with its financial records.
func (s *companyService) GetCompanyByID(id uint) (*models.Company, error) {
	var company models.Company
	if err := s.db.Preload("FinancialRecords").First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCompanyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	sortFinancialRecords(company.FinancialRecords)
	return &company, nil
}

// UpdateCompany applies a partial update to a listing.
func (s *companyService) UpdateCompany(id uint, update CompanyUpdate) (*models.Company, error) {
	company, err := s.GetCompanyByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if update.Name != nil && *update.Name != "" {
		updates["name"] = *update.Name
	}
	if update.Description != nil {
		updates["description"] = *update.Description
	}
	if update.ImageURL != nil {
		updates["image_url"] = *update.ImageURL
	}
	if update.Price != nil {
		if *update.Price <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price must be positive")
		}
		updates["price"] = *update.Price
	}
	if update.Sector != nil {
		updates["sector"] = *update.Sector
	}

	if len(updates) > 0 {
		if err := s.db.Model(company).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.GetCompanyByID(id)
	}

	return company, nil
}

// DeleteCompany removes a listing together with its financial records
// and favorite edges.
func (s *companyService) DeleteCompany(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Company{}, id)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrCompanyNotFound
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.FinancialRecord{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("company_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	invalidateStatusCounts(s.cache)
	return nil
}

// SetCompanyImage stores the uploaded image URL on a listing.
func (s *companyService) SetCompanyImage(id uint, imageURL string) (*models.Company, error) {
	company, err := s.GetCompanyByID(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(company).Update("image_url", imageURL).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	company.ImageURL = imageURL
	return company, nil
}

// AddFinancialRecords appends a batch of monthly figures to a company.
// A month+year that repeats inside the batch, or that already exists for
// the company, rejects the whole batch before any write.
func (s *companyService) AddFinancialRecords(companyID uint, entries []FinancialEntry) (*models.Company, error) {
	if len(entries) == 0 || len(entries) > len(models.Months) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("between 1 and %d entries are required", len(models.Months)))
	}

	seen := make(map[string]struct{}, len(entries))
	records := make([]models.FinancialRecord, 0, len(entries))
	for _, entry := range entries {
		if models.MonthIndex(entry.Month) == 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidMonth, "Unrecognized month name: "+entry.Month)
		}
		if entry.Value < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "value must be non-negative")
		}
		year := entry.Year
		if year == 0 {
			year = defaultRecordYear
		}
		key := fmt.Sprintf("%s-%d", entry.Month, year)
		if _, dup := seen[key]; dup {
			return nil, apperrors.ErrDuplicateMonth
		}
		seen[key] = struct{}{}
		records = append(records, models.FinancialRecord{
			CompanyID: companyID,
			Month:     entry.Month,
			Value:     entry.Value,
			Year:      year,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Company{}).Where("id = ?", companyID).Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return apperrors.ErrCompanyNotFound
		}

		var existing []models.FinancialRecord
		if err := tx.Where("company_id = ?", companyID).Find(&existing).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, rec := range existing {
			key := fmt.Sprintf("%s-%d", rec.Month, rec.Year)
			if _, dup := seen[key]; dup {
				return apperrors.ErrDuplicateMonth
			}
		}

		if err := tx.Create(&records).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.ErrDuplicateMonth
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidateStatusCounts(s.cache)

	return s.GetCompanyByID(companyID)
}

// GetFinancialRecords returns a company's records ordered by year
// descending, then by calendar month.
func (s *companyService) GetFinancialRecords(companyID uint) ([]models.FinancialRecord, error) {
	var count int64
	if err := s.db.Model(&models.Company{}).Where("id = ?", companyID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return nil, apperrors.ErrCompanyNotFound
	}

	var records []models.FinancialRecord
	if err := s.db.Where("company_id = ?", companyID).Find(&records).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	sortFinancialRecords(records)
	return records, nil
}

// sortFinancialRecords orders records by year descending, then by
// calendar month (Janeiro..Dezembro).
func sortFinancialRecords(records []models.FinancialRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Year != records[j].Year {
			return records[i].Year > records[j].Year
		}
		return models.MonthIndex(records[i].Month) < models.MonthIndex(records[j].Month)
	})
}
