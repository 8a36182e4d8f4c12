package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"vpe/internal/cache"
	apperrors "vpe/internal/errors"
	"vpe/internal/models"
)

// favoriteService handles the favorites subsystem.
type favoriteService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewFavoriteService creates a new FavoriteServicer. Writes invalidate
// the status-count cache; a nil cache disables that.
func NewFavoriteService(db *gorm.DB, c *cache.Cache) FavoriteServicer {
	return &favoriteService{db: db, cache: c}
}

// AddFavorite creates the bookmark edge from a user to a company.
// A second call for the same pair reports a conflict; the edge itself
// never duplicates.
func (s *favoriteService) AddFavorite(userID, companyID uint) (*models.Favorite, error) {
	var count int64
	if err := s.db.Model(&models.Company{}).Where("id = ?", companyID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return nil, apperrors.ErrCompanyNotFound
	}

	var existing int64
	if err := s.db.Model(&models.Favorite{}).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Count(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return nil, apperrors.ErrDuplicateFavorite
	}

	favorite := &models.Favorite{
		UserID:      userID,
		CompanyID:   companyID,
		FavoritedAt: time.Now(),
	}

	if err := s.db.Create(favorite).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateFavorite
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	invalidateStatusCounts(s.cache)

	if err := s.db.Preload("Company").First(favorite, favorite.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return favorite, nil
}

// RemoveFavorite deletes the edge for a (user, company) pair.
func (s *favoriteService) RemoveFavorite(userID, companyID uint) error {
	res := s.db.Where("user_id = ? AND company_id = ?", userID, companyID).Delete(&models.Favorite{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrFavoriteNotFound
	}
	invalidateStatusCounts(s.cache)
	return nil
}

// ListFavorites returns a user's favorites with embedded company data,
// most recently favorited first.
func (s *favoriteService) ListFavorites(userID uint) ([]models.Favorite, error) {
	var favorites []models.Favorite
	if err := s.db.Where("user_id = ?", userID).
		Preload("Company").
		Order("favorited_at DESC").
		Find(&favorites).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return favorites, nil
}
