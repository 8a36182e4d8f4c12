package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"vpe/internal/cache"
	apperrors "vpe/internal/errors"
	"vpe/internal/logger"
	"vpe/internal/models"
)

const (
	statusCacheKey = "vpe:status:counts"
	statusCacheTTL = 30 * time.Second
)

// statusService aggregates row counts for the public status endpoint,
// with a short-lived Redis cache in front of the store.
type statusService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewStatusService creates a new StatusServicer. A nil cache disables
// caching.
func NewStatusService(db *gorm.DB, c *cache.Cache) StatusServicer {
	return &statusService{db: db, cache: c}
}

// Counts returns aggregate entity counts. Cache failures degrade to a
// plain database read and are only logged.
func (s *statusService) Counts(ctx context.Context) (*StatusCounts, error) {
	var counts StatusCounts
	hit, err := s.cache.Get(ctx, statusCacheKey, &counts)
	if err != nil {
		logger.Get().Warnw("status cache read failed", "error", err)
	} else if hit {
		return &counts, nil
	}

	if err := s.db.Model(&models.User{}).Count(&counts.Users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Company{}).Count(&counts.Companies).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Favorite{}).Count(&counts.Favorites).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.FinancialRecord{}).Count(&counts.FinancialRecords).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.cache.Set(ctx, statusCacheKey, &counts, statusCacheTTL); err != nil {
		logger.Get().Warnw("status cache write failed", "error", err)
	}

	return &counts, nil
}

// invalidateStatusCounts drops the cached counts after an entity write
// so /api/status never serves stale numbers for the rest of the TTL.
func invalidateStatusCounts(c *cache.Cache) {
	if err := c.Delete(context.Background(), statusCacheKey); err != nil {
		logger.Get().Warnw("status cache invalidation failed", "error", err)
	}
}
