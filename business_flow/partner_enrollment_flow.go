package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/repository"
	"github.com/amirphl/orochi-partners/utils"
)

// EnrollPartnerParams describes a partner to enroll into a program through a link
type EnrollPartnerParams struct {
	Program  *models.Program
	Link     *models.Link
	Email    string
	Name     string
	RewardID *string
	Status   models.EnrollmentStatus
}

// PartnerEnrollmentFlow creates partners and their program enrollments
type PartnerEnrollmentFlow interface {
	CreateAndEnrollPartner(ctx context.Context, params EnrollPartnerParams) (*models.ProgramEnrollment, error)
}

type PartnerEnrollmentFlowImpl struct {
	partnerRepo    repository.PartnerRepository
	enrollmentRepo repository.ProgramEnrollmentRepository
	linkRepo       repository.LinkRepository
	transactor     repository.Transactor
}

func NewPartnerEnrollmentFlow(
	partnerRepo repository.PartnerRepository,
	enrollmentRepo repository.ProgramEnrollmentRepository,
	linkRepo repository.LinkRepository,
	transactor repository.Transactor,
) PartnerEnrollmentFlow {
	return &PartnerEnrollmentFlowImpl{
		partnerRepo:    partnerRepo,
		enrollmentRepo: enrollmentRepo,
		linkRepo:       linkRepo,
		transactor:     transactor,
	}
}

func (f *PartnerEnrollmentFlowImpl) CreateAndEnrollPartner(ctx context.Context, params EnrollPartnerParams) (*models.ProgramEnrollment, error) {
	if params.Program == nil || params.Link == nil {
		return nil, fmt.Errorf("%w: program and link are required", ErrInvalidLinkInput)
	}
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if err := payloadValidator.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: invalid partner email %q", ErrInvalidLinkInput, params.Email)
	}
	status := params.Status
	if status == "" {
		status = models.EnrollmentStatusInvited
	}

	var enrollment *models.ProgramEnrollment
	err := f.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		partner, err := f.findOrCreatePartner(txCtx, email, params.Name)
		if err != nil {
			return err
		}

		if err := f.linkRepo.AssignPartner(txCtx, params.Link.ID, partner.ID); err != nil {
			return err
		}
		params.Link.PartnerID = utils.ToPtr(partner.ID)

		enrollment = &models.ProgramEnrollment{
			ID:        utils.CreateID(utils.EnrollmentIDPrefix),
			ProgramID: params.Program.ID,
			PartnerID: partner.ID,
			LinkID:    utils.ToPtr(params.Link.ID),
			RewardID:  params.RewardID,
			Status:    status,
		}
		if err := f.enrollmentRepo.Save(txCtx, enrollment); err != nil {
			return fmt.Errorf("failed to enroll partner %s: %w", partner.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (f *PartnerEnrollmentFlowImpl) findOrCreatePartner(ctx context.Context, email, name string) (*models.Partner, error) {
	partner, err := f.partnerRepo.ByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up partner: %w", err)
	}
	if partner != nil {
		return partner, nil
	}

	if strings.TrimSpace(name) == "" {
		name = utils.EmailLocalPart(email)
	}
	partner = &models.Partner{
		ID:    utils.CreateID(utils.PartnerIDPrefix),
		Name:  name,
		Email: email,
	}
	if err := f.partnerRepo.Save(ctx, partner); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, fmt.Errorf("partner %s was created concurrently: %w", email, err)
		}
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}
	return partner, nil
}
