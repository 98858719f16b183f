package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/orochi-partners/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FolderRepositoryImpl implements FolderRepository
type FolderRepositoryImpl struct {
	*BaseRepository[models.Folder, models.FolderFilter]
}

func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &FolderRepositoryImpl{BaseRepository: NewBaseRepository[models.Folder, models.FolderFilter](db)}
}

func (r *FolderRepositoryImpl) ByID(ctx context.Context, id string) (*models.Folder, error) {
	return r.byStringID(ctx, id)
}

func (r *FolderRepositoryImpl) ByName(ctx context.Context, workspaceID uint, name string) (*models.Folder, error) {
	rows, err := r.ByFilter(ctx, models.FolderFilter{WorkspaceID: &workspaceID, Name: &name}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *FolderRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID uint) ([]*models.Folder, error) {
	return r.ByFilter(ctx, models.FolderFilter{WorkspaceID: &workspaceID}, "name ASC", 0, 0)
}

func (r *FolderRepositoryImpl) CreateIfNotExists(ctx context.Context, folder *models.Folder, ownerUserID uint) (*models.Folder, bool, error) {
	var (
		result  *models.Folder
		created bool
	)

	err := WithTransaction(ctx, r.DB, func(txCtx context.Context) error {
		db := r.getDB(txCtx)
		res := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "workspace_id"}},
			DoNothing: true,
		}).Create(folder)
		if res.Error != nil {
			return fmt.Errorf("failed to upsert folder: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			existing, err := r.ByName(txCtx, folder.WorkspaceID, folder.Name)
			if err != nil {
				return err
			}
			if existing == nil {
				return fmt.Errorf("folder %q vanished after conflict", folder.Name)
			}
			result = existing
			return nil
		}

		grant := &models.FolderUser{FolderID: folder.ID, UserID: ownerUserID, Role: models.FolderRoleOwner}
		if err := db.Create(grant).Error; err != nil {
			return fmt.Errorf("failed to grant folder owner: %w", translateError(err))
		}
		result = folder
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return result, created, nil
}

func (r *FolderRepositoryImpl) applyFilter(db *gorm.DB, f models.FolderFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.Name != nil {
		db = db.Where("name = ?", *f.Name)
	}
	if f.WorkspaceID != nil {
		db = db.Where("workspace_id = ?", *f.WorkspaceID)
	}
	return db
}

func (r *FolderRepositoryImpl) ByFilter(ctx context.Context, filter models.FolderFilter, orderBy string, limit, offset int) ([]*models.Folder, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.Folder{}), filter), orderBy, limit, offset)
	var rows []*models.Folder
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *FolderRepositoryImpl) Count(ctx context.Context, filter models.FolderFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.Folder{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *FolderRepositoryImpl) Exists(ctx context.Context, filter models.FolderFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
