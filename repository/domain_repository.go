package repository

import (
	"context"

	"github.com/amirphl/orochi-partners/models"
	"gorm.io/gorm"
)

// DomainRepositoryImpl implements DomainRepository
type DomainRepositoryImpl struct {
	*BaseRepository[models.Domain, models.DomainFilter]
}

func NewDomainRepository(db *gorm.DB) DomainRepository {
	return &DomainRepositoryImpl{BaseRepository: NewBaseRepository[models.Domain, models.DomainFilter](db)}
}

func (r *DomainRepositoryImpl) BySlug(ctx context.Context, slug string) (*models.Domain, error) {
	rows, err := r.ByFilter(ctx, models.DomainFilter{Slug: &slug}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *DomainRepositoryImpl) applyFilter(db *gorm.DB, f models.DomainFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Slug != nil {
		db = db.Where("slug = ?", *f.Slug)
	}
	if f.WorkspaceID != nil {
		db = db.Where("workspace_id = ?", *f.WorkspaceID)
	}
	if f.Verified != nil {
		db = db.Where("verified = ?", *f.Verified)
	}
	if f.Archived != nil {
		db = db.Where("archived = ?", *f.Archived)
	}
	return db
}

func (r *DomainRepositoryImpl) ByFilter(ctx context.Context, filter models.DomainFilter, orderBy string, limit, offset int) ([]*models.Domain, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Domain{}), filter), orderBy, limit, offset)
	var rows []*models.Domain
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *DomainRepositoryImpl) Count(ctx context.Context, filter models.DomainFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Domain{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *DomainRepositoryImpl) Exists(ctx context.Context, filter models.DomainFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
