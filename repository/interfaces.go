package repository

import (
	"context"
	"errors"

	"github.com/amirphl/orochi-partners/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

// ErrOnboardingNotPending is returned when consuming staged onboarding data that
// is missing or was already consumed
var ErrOnboardingNotPending = errors.New("onboarding data is not pending")

type Repository[T any, F any] interface {
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// WorkspaceRepository defines operations for workspaces
type WorkspaceRepository interface {
	Repository[models.Workspace, models.WorkspaceFilter]
	ByID(ctx context.Context, id uint) (*models.Workspace, error)
	BySlug(ctx context.Context, slug string) (*models.Workspace, error)
	IsMember(ctx context.Context, workspaceID, userID uint) (bool, error)
	AddMember(ctx context.Context, member *models.WorkspaceUser) error
	// ApplyProgramProvisioned sets the default program, increments the folder
	// usage counter and assigns invoicePrefix only when none is set.
	ApplyProgramProvisioned(ctx context.Context, workspaceID uint, programID, invoicePrefix string) error
}

// DomainRepository defines operations for workspace domains
type DomainRepository interface {
	Repository[models.Domain, models.DomainFilter]
	BySlug(ctx context.Context, slug string) (*models.Domain, error)
}

// FolderRepository defines operations for link folders
type FolderRepository interface {
	Repository[models.Folder, models.FolderFilter]
	ByID(ctx context.Context, id string) (*models.Folder, error)
	ByName(ctx context.Context, workspaceID uint, name string) (*models.Folder, error)
	ListByWorkspace(ctx context.Context, workspaceID uint) ([]*models.Folder, error)
	// CreateIfNotExists inserts folder unless one with the same name exists in
	// the workspace. The owner grant is written only when the folder is created.
	CreateIfNotExists(ctx context.Context, folder *models.Folder, ownerUserID uint) (*models.Folder, bool, error)
}

// ProgramRepository defines operations for programs
type ProgramRepository interface {
	Repository[models.Program, models.ProgramFilter]
	ByID(ctx context.Context, id string) (*models.Program, error)
	UpdateLinkSettings(ctx context.Context, id string, settings ProgramLinkSettings) error
	UpdateLogo(ctx context.Context, id, logo string) error
}

// ProgramLinkSettings are the link configuration columns of a program
type ProgramLinkSettings struct {
	Domain          string
	URL             string
	CookieLength    int
	DefaultFolderID *string
	LinkStructure   models.LinkStructure
}

// RewardRepository defines operations for rewards
type RewardRepository interface {
	Repository[models.Reward, models.RewardFilter]
	ByID(ctx context.Context, id string) (*models.Reward, error)
	DefaultForProgram(ctx context.Context, programID string) (*models.Reward, error)
}

// PartnerRepository defines operations for partners
type PartnerRepository interface {
	Repository[models.Partner, models.PartnerFilter]
	ByID(ctx context.Context, id string) (*models.Partner, error)
	ByEmail(ctx context.Context, email string) (*models.Partner, error)
}

// ProgramEnrollmentRepository defines operations for program enrollments
type ProgramEnrollmentRepository interface {
	Repository[models.ProgramEnrollment, models.ProgramEnrollmentFilter]
	ByProgramAndPartner(ctx context.Context, programID, partnerID string) (*models.ProgramEnrollment, error)
}

// LinkRepository defines operations for tracked links
type LinkRepository interface {
	Repository[models.Link, models.LinkFilter]
	ByID(ctx context.Context, id string) (*models.Link, error)
	ByDomainAndKey(ctx context.Context, domain, key string) (*models.Link, error)
	AssignPartner(ctx context.Context, linkID, partnerID string) error
}

// ProgramOnboardingRepository defines operations for staged onboarding data
type ProgramOnboardingRepository interface {
	Repository[models.ProgramOnboarding, models.ProgramOnboardingFilter]
	ByWorkspace(ctx context.Context, workspaceID uint) (*models.ProgramOnboarding, error)
	UpdatePayload(ctx context.Context, id uint, payload *models.ProgramOnboardingData) error
	// MarkConsumed clears the payload of the pending row of the workspace. It
	// returns ErrOnboardingNotPending when no pending row exists.
	MarkConsumed(ctx context.Context, workspaceID uint) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByWorkspace(ctx context.Context, workspaceID uint, limit, offset int) ([]*models.AuditLog, error)
}
