package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"gorm.io/gorm"
)

// LinkRepositoryImpl implements LinkRepository
type LinkRepositoryImpl struct {
	*BaseRepository[models.Link, models.LinkFilter]
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &LinkRepositoryImpl{BaseRepository: NewBaseRepository[models.Link, models.LinkFilter](db)}
}

func (r *LinkRepositoryImpl) ByID(ctx context.Context, id string) (*models.Link, error) {
	return r.byStringID(ctx, id)
}

func (r *LinkRepositoryImpl) ByDomainAndKey(ctx context.Context, domain, key string) (*models.Link, error) {
	rows, err := r.ByFilter(ctx, models.LinkFilter{Domain: &domain, Key: &key}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *LinkRepositoryImpl) AssignPartner(ctx context.Context, linkID, partnerID string) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Link{}).
		Where("id = ?", linkID).
		Updates(map[string]any{
			"partner_id": partnerID,
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to assign partner to link: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *LinkRepositoryImpl) applyFilter(db *gorm.DB, f models.LinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.WorkspaceID != nil {
		db = db.Where("workspace_id = ?", *f.WorkspaceID)
	}
	if f.Domain != nil {
		db = db.Where("domain = ?", *f.Domain)
	}
	if f.Key != nil {
		db = db.Where("key = ?", *f.Key)
	}
	if f.ProgramID != nil {
		db = db.Where("program_id = ?", *f.ProgramID)
	}
	if f.PartnerID != nil {
		db = db.Where("partner_id = ?", *f.PartnerID)
	}
	return db
}

func (r *LinkRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkFilter, orderBy string, limit, offset int) ([]*models.Link, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Link{}), filter), orderBy, limit, offset)
	var rows []*models.Link
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkRepositoryImpl) Count(ctx context.Context, filter models.LinkFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Link{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LinkRepositoryImpl) Exists(ctx context.Context, filter models.LinkFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
