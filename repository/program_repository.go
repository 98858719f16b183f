package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"gorm.io/gorm"
)

// ProgramRepositoryImpl implements ProgramRepository
type ProgramRepositoryImpl struct {
	*BaseRepository[models.Program, models.ProgramFilter]
}

func NewProgramRepository(db *gorm.DB) ProgramRepository {
	return &ProgramRepositoryImpl{BaseRepository: NewBaseRepository[models.Program, models.ProgramFilter](db)}
}

func (r *ProgramRepositoryImpl) ByID(ctx context.Context, id string) (*models.Program, error) {
	return r.byStringID(ctx, id)
}

func (r *ProgramRepositoryImpl) UpdateLinkSettings(ctx context.Context, id string, settings ProgramLinkSettings) error {
	return r.update(ctx, id, map[string]any{
		"domain":            settings.Domain,
		"url":               settings.URL,
		"cookie_length":     settings.CookieLength,
		"default_folder_id": settings.DefaultFolderID,
		"link_structure":    settings.LinkStructure,
		"updated_at":        utils.UTCNow(),
	})
}

func (r *ProgramRepositoryImpl) UpdateLogo(ctx context.Context, id, logo string) error {
	return r.update(ctx, id, map[string]any{
		"logo":       logo,
		"updated_at": utils.UTCNow(),
	})
}

func (r *ProgramRepositoryImpl) update(ctx context.Context, id string, values map[string]any) error {
	db := r.getDB(ctx)
	res := db.Model(&models.Program{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return fmt.Errorf("failed to update program %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("failed to update program %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *ProgramRepositoryImpl) applyFilter(db *gorm.DB, f models.ProgramFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.WorkspaceID != nil {
		db = db.Where("workspace_id = ?", *f.WorkspaceID)
	}
	if f.Slug != nil {
		db = db.Where("slug = ?", *f.Slug)
	}
	if f.Domain != nil {
		db = db.Where("domain = ?", *f.Domain)
	}
	return db
}

func (r *ProgramRepositoryImpl) ByFilter(ctx context.Context, filter models.ProgramFilter, orderBy string, limit, offset int) ([]*models.Program, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Program{}), filter), orderBy, limit, offset)
	var rows []*models.Program
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProgramRepositoryImpl) Count(ctx context.Context, filter models.ProgramFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Program{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ProgramRepositoryImpl) Exists(ctx context.Context, filter models.ProgramFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
