package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amirphl/orochi-partners/app/dto"
	"github.com/amirphl/orochi-partners/app/services"
	"github.com/amirphl/orochi-partners/logging"
	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/repository"
	"github.com/amirphl/orochi-partners/utils"
)

// ProgramSettingsFlow reads programs and updates their link configuration
type ProgramSettingsFlow interface {
	UpdateLinkSettings(ctx context.Context, req *dto.UpdateLinkSettingsRequest, metadata *ClientMetadata) (*dto.UpdateLinkSettingsResponse, error)
	GetProgram(ctx context.Context, workspaceID uint, programID string) (*dto.ProgramResponse, error)
	ListFolders(ctx context.Context, workspaceID uint) (*dto.ListFoldersResponse, error)
	LinkStructureOptions(ctx context.Context, workspaceID uint, programID string) (*dto.LinkStructureOptionsResponse, error)
}

// ProgramSettingsFlowImpl implements ProgramSettingsFlow
type ProgramSettingsFlowImpl struct {
	programRepo    repository.ProgramRepository
	folderRepo     repository.FolderRepository
	auditRepo      repository.AuditLogRepository
	domainVerifier DomainVerifier
	cache          services.ProgramCache
}

// NewProgramSettingsFlow creates a new program settings flow
func NewProgramSettingsFlow(
	programRepo repository.ProgramRepository,
	folderRepo repository.FolderRepository,
	auditRepo repository.AuditLogRepository,
	domainVerifier DomainVerifier,
	cache services.ProgramCache,
) ProgramSettingsFlow {
	if cache == nil {
		cache = services.NoopProgramCache{}
	}
	return &ProgramSettingsFlowImpl{
		programRepo:    programRepo,
		folderRepo:     folderRepo,
		auditRepo:      auditRepo,
		domainVerifier: domainVerifier,
		cache:          cache,
	}
}

func (f *ProgramSettingsFlowImpl) UpdateLinkSettings(ctx context.Context, req *dto.UpdateLinkSettingsRequest, metadata *ClientMetadata) (*dto.UpdateLinkSettingsResponse, error) {
	if req == nil {
		return nil, NewBusinessError("INVALID_REQUEST", "request is required", nil)
	}
	req.Domain = strings.ToLower(strings.TrimSpace(req.Domain))
	req.URL = strings.TrimSpace(req.URL)
	req.DefaultFolderID = utils.EmptyToNil(req.DefaultFolderID)

	if err := validateStruct(req, ErrInvalidLinkSettings); err != nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Invalid link settings", err)
	}
	if !utils.IsAllowedCookieLength(req.CookieLength) {
		return nil, NewBusinessErrorf("INVALID_COOKIE_LENGTH", "Cookie length must be one of %v days", ErrInvalidCookieLength, utils.AllowedCookieLengths)
	}

	program, err := f.programForWorkspace(ctx, req.WorkspaceID, req.ProgramID)
	if err != nil {
		return nil, err
	}

	// A program may keep a structure that has since become unavailable, but
	// cannot switch to one.
	structure := models.LinkStructure(req.LinkStructure)
	if structure != program.LinkStructure && !models.IsSelectableLinkStructure(structure) {
		return nil, NewBusinessError("LINK_STRUCTURE_UNAVAILABLE", "This link structure is coming soon", ErrLinkStructureUnavailable)
	}

	if _, err := f.domainVerifier.DomainOrError(ctx, req.WorkspaceID, req.Domain); err != nil {
		f.auditFailure(ctx, req, err, metadata)
		if IsDomainNotOwned(err) {
			return nil, NewBusinessError("DOMAIN_NOT_OWNED", "Domain does not belong to this workspace", err)
		}
		return nil, NewBusinessError("LINK_SETTINGS_UPDATE_FAILED", "Failed to update program", err)
	}

	if req.DefaultFolderID != nil {
		folder, err := f.folderRepo.ByID(ctx, *req.DefaultFolderID)
		if err != nil {
			return nil, NewBusinessError("LINK_SETTINGS_UPDATE_FAILED", "Failed to update program", err)
		}
		if folder == nil || folder.WorkspaceID != req.WorkspaceID {
			f.auditFailure(ctx, req, ErrFolderNotFound, metadata)
			return nil, NewBusinessError("FOLDER_NOT_FOUND", "Folder not found", ErrFolderNotFound)
		}
	}

	if err := f.programRepo.UpdateLinkSettings(ctx, program.ID, repository.ProgramLinkSettings{
		Domain:          req.Domain,
		URL:             req.URL,
		CookieLength:    req.CookieLength,
		DefaultFolderID: req.DefaultFolderID,
		LinkStructure:   structure,
	}); err != nil {
		f.auditFailure(ctx, req, err, metadata)
		return nil, NewBusinessError("LINK_SETTINGS_UPDATE_FAILED", "Failed to update program", err)
	}

	if err := f.cache.Invalidate(ctx, program.ID); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("program_id", program.ID).Msg("failed to invalidate program cache")
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		workspaceID: req.WorkspaceID,
		userID:      req.UserID,
		action:      models.AuditActionLinkSettingsUpdated,
		description: fmt.Sprintf("Link settings updated: %s", program.ID),
		success:     true,
		details: map[string]any{
			"domain":         req.Domain,
			"cookie_length":  req.CookieLength,
			"link_structure": req.LinkStructure,
		},
	}, metadata)

	updated, err := f.programRepo.ByID(ctx, program.ID)
	if err != nil || updated == nil {
		// the write succeeded, answer with what was written
		updated = program
		updated.Domain = req.Domain
		updated.URL = req.URL
		updated.CookieLength = req.CookieLength
		updated.DefaultFolderID = req.DefaultFolderID
		updated.LinkStructure = structure
	}

	return &dto.UpdateLinkSettingsResponse{
		Message: "Program updated successfully.",
		Program: ToProgramResponse(updated),
	}, nil
}

func (f *ProgramSettingsFlowImpl) auditFailure(ctx context.Context, req *dto.UpdateLinkSettingsRequest, cause error, metadata *ClientMetadata) {
	errMsg := cause.Error()
	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		workspaceID: req.WorkspaceID,
		userID:      req.UserID,
		action:      models.AuditActionLinkSettingsFailed,
		description: fmt.Sprintf("Link settings update failed: %s", req.ProgramID),
		success:     false,
		errMsg:      &errMsg,
	}, metadata)
}

// programForWorkspace loads a program through the cache and hides programs of
// other workspaces.
func (f *ProgramSettingsFlowImpl) programForWorkspace(ctx context.Context, workspaceID uint, programID string) (*models.Program, error) {
	if programID == "" {
		return nil, NewBusinessError("PROGRAM_NOT_FOUND", "Program not found", ErrProgramNotFound)
	}

	cached, err := f.cache.Get(ctx, programID)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("program_id", programID).Msg("program cache read failed")
	}
	if cached != nil && cached.WorkspaceID == workspaceID {
		return cached, nil
	}

	program, err := f.programRepo.ByID(ctx, programID)
	if err != nil {
		return nil, NewBusinessError("PROGRAM_LOOKUP_FAILED", "Failed to load program", err)
	}
	if program == nil || program.WorkspaceID != workspaceID {
		return nil, NewBusinessError("PROGRAM_NOT_FOUND", "Program not found", ErrProgramNotFound)
	}

	if err := f.cache.Set(ctx, program); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("program_id", programID).Msg("program cache write failed")
	}
	return program, nil
}

func (f *ProgramSettingsFlowImpl) GetProgram(ctx context.Context, workspaceID uint, programID string) (*dto.ProgramResponse, error) {
	program, err := f.programForWorkspace(ctx, workspaceID, programID)
	if err != nil {
		return nil, err
	}
	resp := ToProgramResponse(program)
	return &resp, nil
}

func (f *ProgramSettingsFlowImpl) ListFolders(ctx context.Context, workspaceID uint) (*dto.ListFoldersResponse, error) {
	folders, err := f.folderRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, NewBusinessError("FOLDER_LOOKUP_FAILED", "Failed to load folders", err)
	}
	items := make([]dto.FolderItem, 0, len(folders))
	for _, folder := range folders {
		items = append(items, dto.FolderItem{ID: folder.ID, Name: folder.Name, AccessLevel: folder.AccessLevel})
	}
	return &dto.ListFoldersResponse{Message: "Folders retrieved", Items: items}, nil
}

func (f *ProgramSettingsFlowImpl) LinkStructureOptions(ctx context.Context, workspaceID uint, programID string) (*dto.LinkStructureOptionsResponse, error) {
	program, err := f.programForWorkspace(ctx, workspaceID, programID)
	if err != nil {
		return nil, err
	}
	options := models.LinkStructureOptions(program.Domain, program.URL)
	items := make([]dto.LinkStructureOptionItem, 0, len(options))
	for _, opt := range options {
		items = append(items, dto.LinkStructureOptionItem{
			ID:         string(opt.ID),
			Label:      opt.Label,
			Example:    opt.Example,
			ComingSoon: opt.ComingSoon,
		})
	}
	return &dto.LinkStructureOptionsResponse{Message: "Link structures retrieved", Items: items}, nil
}

// ToProgramResponse converts a program model to its API representation
func ToProgramResponse(p *models.Program) dto.ProgramResponse {
	return dto.ProgramResponse{
		ID:              p.ID,
		WorkspaceID:     p.WorkspaceID,
		Name:            p.Name,
		Slug:            p.Slug,
		Domain:          p.Domain,
		URL:             p.URL,
		CookieLength:    p.CookieLength,
		DefaultFolderID: p.DefaultFolderID,
		LinkStructure:   string(p.LinkStructure),
		SupportEmail:    p.SupportEmail,
		HelpURL:         p.HelpURL,
		TermsURL:        p.TermsURL,
		Logo:            p.Logo,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}
