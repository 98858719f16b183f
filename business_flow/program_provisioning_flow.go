package businessflow

import (
	"context"
	"fmt"

	"github.com/amirphl/orochi-partners/app/dto"
	"github.com/amirphl/orochi-partners/app/services"
	"github.com/amirphl/orochi-partners/config"
	"github.com/amirphl/orochi-partners/logging"
	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/repository"
	"github.com/amirphl/orochi-partners/utils"
)

// ProgramProvisioningFlow creates a program from the staged onboarding data of a workspace
type ProgramProvisioningFlow interface {
	CreateProgram(ctx context.Context, req *dto.CreateProgramRequest, metadata *ClientMetadata) (*dto.CreateProgramResponse, error)
}

// ProgramProvisioningFlowImpl implements ProgramProvisioningFlow
type ProgramProvisioningFlowImpl struct {
	workspaceRepo  repository.WorkspaceRepository
	onboardingRepo repository.ProgramOnboardingRepository
	folderRepo     repository.FolderRepository
	programRepo    repository.ProgramRepository
	rewardRepo     repository.RewardRepository
	auditRepo      repository.AuditLogRepository
	transactor     repository.Transactor

	domainVerifier DomainVerifier
	linkFlow       LinkFlow
	enrollmentFlow PartnerEnrollmentFlow

	storage       services.StorageService
	logoProcessor services.LogoProcessor
	notifier      services.NotificationService
	importer      services.CampaignImporter
	dispatcher    BestEffortDispatcher

	cfg config.PartnersConfig
}

// NewProgramProvisioningFlow creates a new program provisioning flow
func NewProgramProvisioningFlow(
	workspaceRepo repository.WorkspaceRepository,
	onboardingRepo repository.ProgramOnboardingRepository,
	folderRepo repository.FolderRepository,
	programRepo repository.ProgramRepository,
	rewardRepo repository.RewardRepository,
	auditRepo repository.AuditLogRepository,
	transactor repository.Transactor,
	domainVerifier DomainVerifier,
	linkFlow LinkFlow,
	enrollmentFlow PartnerEnrollmentFlow,
	storage services.StorageService,
	logoProcessor services.LogoProcessor,
	notifier services.NotificationService,
	importer services.CampaignImporter,
	dispatcher BestEffortDispatcher,
	cfg config.PartnersConfig,
) ProgramProvisioningFlow {
	return &ProgramProvisioningFlowImpl{
		workspaceRepo:  workspaceRepo,
		onboardingRepo: onboardingRepo,
		folderRepo:     folderRepo,
		programRepo:    programRepo,
		rewardRepo:     rewardRepo,
		auditRepo:      auditRepo,
		transactor:     transactor,
		domainVerifier: domainVerifier,
		linkFlow:       linkFlow,
		enrollmentFlow: enrollmentFlow,
		storage:        storage,
		logoProcessor:  logoProcessor,
		notifier:       notifier,
		importer:       importer,
		dispatcher:     dispatcher,
		cfg:            cfg,
	}
}

// CreateProgram validates the staged onboarding data, writes the program in one
// transaction and dispatches the post-commit side effects without waiting for them.
func (f *ProgramProvisioningFlowImpl) CreateProgram(ctx context.Context, req *dto.CreateProgramRequest, metadata *ClientMetadata) (*dto.CreateProgramResponse, error) {
	if req == nil || req.WorkspaceID == 0 || req.UserID == 0 {
		return nil, NewBusinessError("INVALID_REQUEST", "workspace and user are required", nil)
	}
	logger := logging.Ctx(ctx).With().Uint("workspace_id", req.WorkspaceID).Logger()

	workspace, err := f.workspaceRepo.ByID(ctx, req.WorkspaceID)
	if err != nil {
		return nil, NewBusinessError("WORKSPACE_LOOKUP_FAILED", "Failed to load workspace", err)
	}
	if workspace == nil {
		return nil, NewBusinessError("WORKSPACE_NOT_FOUND", "Workspace not found", ErrWorkspaceNotFound)
	}

	onboarding, err := f.onboardingRepo.ByWorkspace(ctx, workspace.ID)
	if err != nil {
		return nil, NewBusinessError("ONBOARDING_LOOKUP_FAILED", "Failed to load onboarding data", err)
	}
	if onboarding == nil || !onboarding.IsPending() {
		programsProvisioned.WithLabelValues("missing_data").Inc()
		return nil, NewBusinessError("MISSING_ONBOARDING_DATA", "Program onboarding data not found", ErrMissingOnboardingData)
	}

	data := *onboarding.Payload
	data.ApplyDefaults()
	if err := ValidateOnboardingData(&data, f.storage); err != nil {
		programsProvisioned.WithLabelValues("invalid").Inc()
		return nil, NewBusinessError("VALIDATION_ERROR", "Program onboarding data is invalid", err)
	}

	if _, err := f.domainVerifier.DomainOrError(ctx, workspace.ID, data.Domain); err != nil {
		if IsDomainNotOwned(err) {
			programsProvisioned.WithLabelValues("domain_not_owned").Inc()
			return nil, NewBusinessError("DOMAIN_NOT_OWNED", "Domain does not belong to this workspace", err)
		}
		return nil, f.fail(ctx, workspace.ID, req.UserID, err, metadata)
	}

	folder, created, err := f.folderRepo.CreateIfNotExists(ctx, &models.Folder{
		ID:          utils.CreateID(utils.FolderIDPrefix),
		Name:        utils.PartnerLinksFolderName,
		WorkspaceID: workspace.ID,
		AccessLevel: models.FolderAccessWrite,
	}, req.UserID)
	if err != nil {
		return nil, f.fail(ctx, workspace.ID, req.UserID, err, metadata)
	}
	logger.Debug().Str("folder_id", folder.ID).Bool("created", created).Msg("partner links folder ready")

	program := &models.Program{
		ID:              utils.CreateID(utils.ProgramIDPrefix),
		WorkspaceID:     workspace.ID,
		Name:            data.Name,
		Slug:            workspace.Slug,
		Domain:          data.Domain,
		URL:             data.URL,
		CookieLength:    models.DefaultCookieLength,
		DefaultFolderID: utils.ToPtr(folder.ID),
		LinkStructure:   data.LinkStructure,
		SupportEmail:    utils.EmptyToNil(data.SupportEmail),
		HelpURL:         utils.EmptyToNil(data.HelpURL),
		TermsURL:        utils.EmptyToNil(data.TermsURL),
	}

	var reward *models.Reward
	if data.HasDefaultReward() {
		reward = &models.Reward{
			ID:          utils.CreateID(utils.RewardIDPrefix),
			ProgramID:   program.ID,
			Event:       data.DefaultRewardType,
			Type:        *data.Type,
			Amount:      *data.Amount,
			MaxDuration: data.MaxDuration,
			Default:     true,
		}
	}

	invoicePrefix := utils.GenerateRandomString(utils.InvoicePrefixLength)
	err = f.transactor.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := f.programRepo.Save(txCtx, program); err != nil {
			return fmt.Errorf("failed to create program: %w", err)
		}
		if reward != nil {
			if err := f.rewardRepo.Save(txCtx, reward); err != nil {
				return fmt.Errorf("failed to create default reward: %w", err)
			}
		}
		if err := f.workspaceRepo.ApplyProgramProvisioned(txCtx, workspace.ID, program.ID, invoicePrefix); err != nil {
			return fmt.Errorf("failed to update workspace: %w", err)
		}
		if err := f.onboardingRepo.MarkConsumed(txCtx, workspace.ID); err != nil {
			return fmt.Errorf("failed to consume onboarding data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, f.fail(ctx, workspace.ID, req.UserID, err, metadata)
	}

	programsProvisioned.WithLabelValues("success").Inc()
	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		workspaceID: workspace.ID,
		userID:      req.UserID,
		action:      models.AuditActionProgramCreated,
		description: fmt.Sprintf("Program created: %s", program.ID),
		success:     true,
		details: map[string]any{
			"program_id":     program.ID,
			"folder_created": created,
			"reward":         reward != nil,
			"partners":       len(data.Partners),
		},
	}, metadata)
	logger.Info().Str("program_id", program.ID).Msg("program provisioned")

	f.dispatcher.Dispatch(ctx, "program_provisioned", f.postCommitTasks(workspace, program, reward, &data, req.UserID)...)

	return &dto.CreateProgramResponse{
		Message:     "Program created successfully",
		ProgramID:   program.ID,
		RedirectURL: fmt.Sprintf("/%s/program?onboarded-program=true", workspace.Slug),
	}, nil
}

func (f *ProgramProvisioningFlowImpl) fail(ctx context.Context, workspaceID, userID uint, cause error, metadata *ClientMetadata) error {
	programsProvisioned.WithLabelValues("failure").Inc()
	logging.Ctx(ctx).Error().Err(cause).Uint("workspace_id", workspaceID).Msg("program provisioning failed")

	errMsg := cause.Error()
	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		workspaceID: workspaceID,
		userID:      userID,
		action:      models.AuditActionProgramCreationFailed,
		description: "Program creation failed",
		success:     false,
		errMsg:      &errMsg,
	}, metadata)

	return NewBusinessError("PROGRAM_CREATION_FAILED", "Failed to create program", fmt.Errorf("%w: %w", ErrProgramCreationFailed, cause))
}

func (f *ProgramProvisioningFlowImpl) postCommitTasks(workspace *models.Workspace, program *models.Program, reward *models.Reward, data *models.ProgramOnboardingData, userID uint) []BestEffortTask {
	var tasks []BestEffortTask

	if logo := utils.Deref(data.Logo); logo != "" {
		tasks = append(tasks, BestEffortTask{
			Name: "logo",
			Run: func(ctx context.Context) error {
				return f.finalizeLogo(ctx, program, logo)
			},
		})
	}

	for _, partner := range data.Partners {
		tasks = append(tasks, BestEffortTask{
			Name: "partner_invite",
			Run: func(ctx context.Context) error {
				return f.invitePartner(ctx, workspace, program, reward, partner, userID)
			},
		})
	}

	if data.Rewardful != nil && data.Rewardful.ID != "" {
		campaignID := data.Rewardful.ID
		tasks = append(tasks, BestEffortTask{
			Name: "import_campaign",
			Run: func(ctx context.Context) error {
				return f.queueCampaignImport(ctx, workspace.ID, program.ID, campaignID)
			},
		})
	}

	return tasks
}

// finalizeLogo copies the staged logo to the program's own key and points the
// program at it. The transient object is removed once the copy exists.
func (f *ProgramProvisioningFlowImpl) finalizeLogo(ctx context.Context, program *models.Program, source string) error {
	raw, err := f.storage.Fetch(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to read staged logo: %w", err)
	}
	normalized, err := f.logoProcessor.Normalize(raw)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("programs/%s/logo_%s", program.ID, utils.Nanoid(utils.LogoKeySuffixLength))
	obj, err := f.storage.Upload(ctx, key, normalized, "image/png")
	if err != nil {
		return fmt.Errorf("failed to upload logo: %w", err)
	}

	patchErr := f.programRepo.UpdateLogo(ctx, program.ID, obj.URL)

	if staged, ok := f.storage.KeyFromURL(source); ok && staged != obj.Key {
		if err := f.storage.Delete(ctx, staged); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", staged).Msg("failed to delete staged logo")
		}
	}

	if patchErr != nil {
		return fmt.Errorf("failed to set program logo: %w", patchErr)
	}
	return nil
}

func (f *ProgramProvisioningFlowImpl) invitePartner(ctx context.Context, workspace *models.Workspace, program *models.Program, reward *models.Reward, partner models.OnboardingPartner, userID uint) error {
	logger := logging.Ctx(ctx).With().Str("program_id", program.ID).Str("email", partner.Email).Logger()

	link, err := f.linkFlow.ProcessLink(ctx, LinkPayload{
		Domain:          program.Domain,
		Key:             partner.Key,
		URL:             program.URL,
		ProgramID:       utils.ToPtr(program.ID),
		FolderID:        program.DefaultFolderID,
		TrackConversion: true,
	}, workspace, userID)
	if err != nil {
		partnerInvites.WithLabelValues("link_failed").Inc()
		logger.Warn().Err(err).Msg("skipping partner: failed to process link")
		return nil
	}
	link, err = f.linkFlow.CreateLink(ctx, link)
	if err != nil {
		partnerInvites.WithLabelValues("link_failed").Inc()
		logger.Warn().Err(err).Msg("skipping partner: failed to create link")
		return nil
	}

	name := utils.Deref(partner.Name)
	if name == "" {
		name = utils.EmailLocalPart(partner.Email)
	}
	var rewardID *string
	if reward != nil {
		rewardID = utils.ToPtr(reward.ID)
	}
	if _, err := f.enrollmentFlow.CreateAndEnrollPartner(ctx, EnrollPartnerParams{
		Program:  program,
		Link:     link,
		Email:    partner.Email,
		Name:     name,
		RewardID: rewardID,
		Status:   models.EnrollmentStatusInvited,
	}); err != nil {
		partnerInvites.WithLabelValues("enroll_failed").Inc()
		return fmt.Errorf("failed to enroll partner %s: %w", partner.Email, err)
	}
	partnerInvites.WithLabelValues("enrolled").Inc()

	msg, err := services.RenderPartnerInvite(services.PartnerInviteData{
		Email:       partner.Email,
		PartnerName: name,
		ProgramName: program.Name,
		ProgramLogo: utils.Deref(program.Logo),
		BrandName:   f.cfg.BrandName,
		ShortLink:   link.ShortLink,
		InviteURL:   fmt.Sprintf("%s/%s", f.cfg.PartnersBaseURL, program.Slug),
	})
	if err != nil {
		return err
	}
	f.dispatcher.Go(ctx, "partner_invite_email", func(ctx context.Context) error {
		return f.notifier.SendEmail(ctx, msg)
	})
	return nil
}

func (f *ProgramProvisioningFlowImpl) queueCampaignImport(ctx context.Context, workspaceID uint, programID, campaignID string) error {
	creds, err := f.importer.GetCredentials(ctx, workspaceID)
	if err != nil {
		return err
	}
	creds.CampaignID = campaignID
	if err := f.importer.SetCredentials(ctx, workspaceID, creds); err != nil {
		return err
	}
	return f.importer.Queue(ctx, services.ImportJob{ProgramID: programID, Action: utils.ImportCampaignAction})
}
