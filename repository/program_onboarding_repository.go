package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"gorm.io/gorm"
)

// ProgramOnboardingRepositoryImpl implements ProgramOnboardingRepository
type ProgramOnboardingRepositoryImpl struct {
	*BaseRepository[models.ProgramOnboarding, models.ProgramOnboardingFilter]
}

func NewProgramOnboardingRepository(db *gorm.DB) ProgramOnboardingRepository {
	return &ProgramOnboardingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ProgramOnboarding, models.ProgramOnboardingFilter](db),
	}
}

func (r *ProgramOnboardingRepositoryImpl) ByWorkspace(ctx context.Context, workspaceID uint) (*models.ProgramOnboarding, error) {
	rows, err := r.ByFilter(ctx, models.ProgramOnboardingFilter{WorkspaceID: &workspaceID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *ProgramOnboardingRepositoryImpl) UpdatePayload(ctx context.Context, id uint, payload *models.ProgramOnboardingData) error {
	db := r.getDB(ctx)
	res := db.Model(&models.ProgramOnboarding{}).
		Where("id = ? AND status = ?", id, models.OnboardingStatusPending).
		Updates(map[string]any{
			"payload":    payload,
			"updated_at": utils.UTCNow(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update onboarding payload: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOnboardingNotPending
	}
	return nil
}

func (r *ProgramOnboardingRepositoryImpl) MarkConsumed(ctx context.Context, workspaceID uint) error {
	db := r.getDB(ctx)
	now := utils.UTCNow()
	res := db.Model(&models.ProgramOnboarding{}).
		Where("workspace_id = ? AND status = ?", workspaceID, models.OnboardingStatusPending).
		Updates(map[string]any{
			"payload":     gorm.Expr("NULL"),
			"status":      models.OnboardingStatusConsumed,
			"consumed_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to consume onboarding data: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrOnboardingNotPending
	}
	return nil
}

func (r *ProgramOnboardingRepositoryImpl) applyFilter(db *gorm.DB, f models.ProgramOnboardingFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.WorkspaceID != nil {
		db = db.Where("workspace_id = ?", *f.WorkspaceID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", string(*f.Status))
	}
	return db
}

func (r *ProgramOnboardingRepositoryImpl) ByFilter(ctx context.Context, filter models.ProgramOnboardingFilter, orderBy string, limit, offset int) ([]*models.ProgramOnboarding, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.ProgramOnboarding{}), filter), orderBy, limit, offset)
	var rows []*models.ProgramOnboarding
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProgramOnboardingRepositoryImpl) Count(ctx context.Context, filter models.ProgramOnboardingFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.ProgramOnboarding{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ProgramOnboardingRepositoryImpl) Exists(ctx context.Context, filter models.ProgramOnboardingFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
