package repository

import (
	"context"

	"github.com/amirphl/orochi-partners/models"
	"gorm.io/gorm"
)

// ProgramEnrollmentRepositoryImpl implements ProgramEnrollmentRepository
type ProgramEnrollmentRepositoryImpl struct {
	*BaseRepository[models.ProgramEnrollment, models.ProgramEnrollmentFilter]
}

func NewProgramEnrollmentRepository(db *gorm.DB) ProgramEnrollmentRepository {
	return &ProgramEnrollmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ProgramEnrollment, models.ProgramEnrollmentFilter](db),
	}
}

func (r *ProgramEnrollmentRepositoryImpl) ByProgramAndPartner(ctx context.Context, programID, partnerID string) (*models.ProgramEnrollment, error) {
	rows, err := r.ByFilter(ctx, models.ProgramEnrollmentFilter{ProgramID: &programID, PartnerID: &partnerID}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *ProgramEnrollmentRepositoryImpl) applyFilter(db *gorm.DB, f models.ProgramEnrollmentFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.ProgramID != nil {
		db = db.Where("program_id = ?", *f.ProgramID)
	}
	if f.PartnerID != nil {
		db = db.Where("partner_id = ?", *f.PartnerID)
	}
	if f.Status != nil {
		db = db.Where("status = ?", string(*f.Status))
	}
	return db
}

func (r *ProgramEnrollmentRepositoryImpl) ByFilter(ctx context.Context, filter models.ProgramEnrollmentFilter, orderBy string, limit, offset int) ([]*models.ProgramEnrollment, error) {
	db := r.getDB(ctx)
	query := paginate(r.applyFilter(db.Model(&models.ProgramEnrollment{}), filter), orderBy, limit, offset)
	var rows []*models.ProgramEnrollment
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProgramEnrollmentRepositoryImpl) Count(ctx context.Context, filter models.ProgramEnrollmentFilter) (int64, error) {
	db := r.getDB(ctx)
	var count int64
	if err := r.applyFilter(db.Model(&models.ProgramEnrollment{}), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ProgramEnrollmentRepositoryImpl) Exists(ctx context.Context, filter models.ProgramEnrollmentFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
