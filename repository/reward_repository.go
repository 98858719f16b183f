package repository

import (
	"context"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"gorm.io/gorm"
)

// RewardRepositoryImpl implements RewardRepository
type RewardRepositoryImpl struct {
	*BaseRepository[models.Reward, models.RewardFilter]
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &RewardRepositoryImpl{BaseRepository: NewBaseRepository[models.Reward, models.RewardFilter](db)}
}

func (r *RewardRepositoryImpl) ByID(ctx context.Context, id string) (*models.Reward, error) {
	return r.byStringID(ctx, id)
}

func (r *RewardRepositoryImpl) DefaultForProgram(ctx context.Context, programID string) (*models.Reward, error) {
	rows, err := r.ByFilter(ctx, models.RewardFilter{ProgramID: &programID, Default: utils.ToPtr(true)}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *RewardRepositoryImpl) applyFilter(db *gorm.DB, f models.RewardFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ProgramID != nil {
		db = db.Where("program_id = ?", *f.ProgramID)
	}
	if f.Default != nil {
		db = db.Where("is_default = ?", *f.Default)
	}
	return db
}

func (r *RewardRepositoryImpl) ByFilter(ctx context.Context, filter models.RewardFilter, orderBy string, limit, offset int) ([]*models.Reward, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Reward{}), filter), orderBy, limit, offset)
	var rows []*models.Reward
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *RewardRepositoryImpl) Count(ctx context.Context, filter models.RewardFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Reward{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RewardRepositoryImpl) Exists(ctx context.Context, filter models.RewardFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
