package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"gorm.io/gorm"
)

// WorkspaceRepositoryImpl implements WorkspaceRepository
type WorkspaceRepositoryImpl struct {
	*BaseRepository[models.Workspace, models.WorkspaceFilter]
}

func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &WorkspaceRepositoryImpl{BaseRepository: NewBaseRepository[models.Workspace, models.WorkspaceFilter](db)}
}

func (r *WorkspaceRepositoryImpl) BySlug(ctx context.Context, slug string) (*models.Workspace, error) {
	rows, err := r.ByFilter(ctx, models.WorkspaceFilter{Slug: &slug}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *WorkspaceRepositoryImpl) IsMember(ctx context.Context, workspaceID, userID uint) (bool, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.WorkspaceUser{}).
		Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check workspace membership: %w", err)
	}
	return count > 0, nil
}

func (r *WorkspaceRepositoryImpl) AddMember(ctx context.Context, member *models.WorkspaceUser) error {
	db := r.getDB(ctx)
	if err := db.Create(member).Error; err != nil {
		return fmt.Errorf("failed to add workspace member: %w", translateError(err))
	}
	return nil
}

func (r *WorkspaceRepositoryImpl) ApplyProgramProvisioned(ctx context.Context, workspaceID uint, programID, invoicePrefix string) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Workspace{}).
		Where("id = ?", workspaceID).
		Updates(map[string]any{
			"default_program_id": programID,
			"folders_usage":      gorm.Expr("folders_usage + 1"),
			"invoice_prefix":     gorm.Expr("COALESCE(NULLIF(invoice_prefix, ''), ?)", invoicePrefix),
			"updated_at":         utils.UTCNow(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update workspace %d: %w", workspaceID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update workspace %d: %w", workspaceID, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *WorkspaceRepositoryImpl) applyFilter(db *gorm.DB, f models.WorkspaceFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.UUID != nil {
		db = db.Where("uuid = ?", *f.UUID)
	}
	if f.Slug != nil {
		db = db.Where("slug = ?", *f.Slug)
	}
	return db
}

func (r *WorkspaceRepositoryImpl) ByFilter(ctx context.Context, filter models.WorkspaceFilter, orderBy string, limit, offset int) ([]*models.Workspace, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Workspace{}), filter), orderBy, limit, offset)
	var rows []*models.Workspace
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *WorkspaceRepositoryImpl) Count(ctx context.Context, filter models.WorkspaceFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Workspace{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *WorkspaceRepositoryImpl) Exists(ctx context.Context, filter models.WorkspaceFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

