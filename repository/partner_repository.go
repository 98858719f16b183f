package repository

import (
	"context"

	"github.com/amirphl/orochi-partners/models"
	"gorm.io/gorm"
)

// PartnerRepositoryImpl implements PartnerRepository
type PartnerRepositoryImpl struct {
	*BaseRepository[models.Partner, models.PartnerFilter]
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &PartnerRepositoryImpl{BaseRepository: NewBaseRepository[models.Partner, models.PartnerFilter](db)}
}

func (r *PartnerRepositoryImpl) ByID(ctx context.Context, id string) (*models.Partner, error) {
	return r.byStringID(ctx, id)
}

func (r *PartnerRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.Partner, error) {
	rows, err := r.ByFilter(ctx, models.PartnerFilter{Email: &email}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *PartnerRepositoryImpl) applyFilter(db *gorm.DB, f models.PartnerFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Email != nil {
		db = db.Where("email = ?", *f.Email)
	}
	return db
}

func (r *PartnerRepositoryImpl) ByFilter(ctx context.Context, filter models.PartnerFilter, orderBy string, limit, offset int) ([]*models.Partner, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Partner{}), filter), orderBy, limit, offset)
	var rows []*models.Partner
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PartnerRepositoryImpl) Count(ctx context.Context, filter models.PartnerFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Partner{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PartnerRepositoryImpl) Exists(ctx context.Context, filter models.PartnerFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
