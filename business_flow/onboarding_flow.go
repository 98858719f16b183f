package businessflow

import (
	"context"
	"encoding/json"
	"errors"
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

// OnboardingFlow stages program configuration until the program is provisioned
type OnboardingFlow interface {
	SaveOnboardingStep(ctx context.Context, req *dto.SaveOnboardingStepRequest, metadata *ClientMetadata) (*dto.OnboardingResponse, error)
	GetOnboarding(ctx context.Context, workspaceID uint) (*dto.OnboardingResponse, error)
	UploadOnboardingLogo(ctx context.Context, req *dto.UploadOnboardingLogoRequest, metadata *ClientMetadata) (*dto.UploadOnboardingLogoResponse, error)
}

// OnboardingFlowImpl implements OnboardingFlow
type OnboardingFlowImpl struct {
	onboardingRepo repository.ProgramOnboardingRepository
	auditRepo      repository.AuditLogRepository
	storage        services.StorageService
	logoProcessor  services.LogoProcessor
}

// NewOnboardingFlow creates a new onboarding flow
func NewOnboardingFlow(
	onboardingRepo repository.ProgramOnboardingRepository,
	auditRepo repository.AuditLogRepository,
	storage services.StorageService,
	logoProcessor services.LogoProcessor,
) OnboardingFlow {
	return &OnboardingFlowImpl{
		onboardingRepo: onboardingRepo,
		auditRepo:      auditRepo,
		storage:        storage,
		logoProcessor:  logoProcessor,
	}
}

func (f *OnboardingFlowImpl) SaveOnboardingStep(ctx context.Context, req *dto.SaveOnboardingStepRequest, metadata *ClientMetadata) (*dto.OnboardingResponse, error) {
	if req == nil || req.WorkspaceID == 0 || len(req.Data) == 0 {
		return nil, NewBusinessError("INVALID_REQUEST", "onboarding step data is required", nil)
	}

	row, err := f.mergeStep(ctx, req.WorkspaceID, req.Data)
	if err != nil {
		return nil, err
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		workspaceID: req.WorkspaceID,
		userID:      req.UserID,
		action:      models.AuditActionOnboardingSaved,
		description: "Onboarding step saved",
		success:     true,
	}, metadata)

	resp := toOnboardingResponse(row)
	resp.Message = "Onboarding step saved"
	return resp, nil
}

// mergeStep overlays patch onto the staged payload, creating the row on first use
func (f *OnboardingFlowImpl) mergeStep(ctx context.Context, workspaceID uint, patch json.RawMessage) (*models.ProgramOnboarding, error) {
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := f.onboardingRepo.ByWorkspace(ctx, workspaceID)
		if err != nil {
			return nil, NewBusinessError("ONBOARDING_LOOKUP_FAILED", "Failed to load onboarding data", err)
		}
		if existing != nil && existing.Status == models.OnboardingStatusConsumed {
			return nil, NewBusinessError("PROGRAM_ALREADY_PROVISIONED", "A program was already created from this onboarding", ErrProgramAlreadyProvisioned)
		}

		var base *models.ProgramOnboardingData
		if existing != nil {
			base = existing.Payload
		}
		merged, err := models.MergeOnboardingData(base, patch)
		if err != nil {
			return nil, NewBusinessError("INVALID_ONBOARDING_STEP", "Onboarding step must be a JSON object matching the onboarding schema", err)
		}
		if fe := checkLogoSource(merged.Logo, f.storage); fe != nil {
			return nil, NewBusinessError("VALIDATION_ERROR", "Invalid onboarding data", &ValidationError{
				Fields: []FieldError{*fe},
				kind:   ErrOnboardingValidation,
			})
		}
		if len(merged.Partners) > utils.MaxOnboardingPartners {
			return nil, NewBusinessError("VALIDATION_ERROR", "Invalid onboarding data", &ValidationError{
				Fields: []FieldError{{Field: "partners", Rule: "max", Message: fmt.Sprintf("must be at most %d", utils.MaxOnboardingPartners)}},
				kind:   ErrOnboardingValidation,
			})
		}

		if existing == nil {
			row := &models.ProgramOnboarding{
				WorkspaceID: workspaceID,
				Payload:     merged,
				Status:      models.OnboardingStatusPending,
			}
			err := f.onboardingRepo.Save(ctx, row)
			if errors.Is(err, repository.ErrDuplicateKey) {
				// another step created the row first
				continue
			}
			if err != nil {
				return nil, NewBusinessError("ONBOARDING_SAVE_FAILED", "Failed to save onboarding data", err)
			}
			return row, nil
		}

		if err := f.onboardingRepo.UpdatePayload(ctx, existing.ID, merged); err != nil {
			if errors.Is(err, repository.ErrOnboardingNotPending) {
				return nil, NewBusinessError("PROGRAM_ALREADY_PROVISIONED", "A program was already created from this onboarding", ErrProgramAlreadyProvisioned)
			}
			return nil, NewBusinessError("ONBOARDING_SAVE_FAILED", "Failed to save onboarding data", err)
		}
		existing.Payload = merged
		existing.UpdatedAt = utils.UTCNow()
		return existing, nil
	}
	return nil, NewBusinessError("ONBOARDING_SAVE_FAILED", "Failed to save onboarding data", repository.ErrDuplicateKey)
}

func (f *OnboardingFlowImpl) GetOnboarding(ctx context.Context, workspaceID uint) (*dto.OnboardingResponse, error) {
	row, err := f.onboardingRepo.ByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, NewBusinessError("ONBOARDING_LOOKUP_FAILED", "Failed to load onboarding data", err)
	}
	if row == nil {
		return nil, NewBusinessError("ONBOARDING_NOT_FOUND", "Program onboarding data not found", ErrMissingOnboardingData)
	}
	resp := toOnboardingResponse(row)
	resp.Message = "Onboarding data retrieved"
	return resp, nil
}

func (f *OnboardingFlowImpl) UploadOnboardingLogo(ctx context.Context, req *dto.UploadOnboardingLogoRequest, metadata *ClientMetadata) (*dto.UploadOnboardingLogoResponse, error) {
	if req == nil || req.WorkspaceID == 0 {
		return nil, NewBusinessError("INVALID_REQUEST", "workspace is required", nil)
	}
	if len(req.Body) == 0 || !strings.HasPrefix(req.ContentType, "image/") {
		return nil, NewBusinessError("INVALID_LOGO", "Logo must be an image", ErrInvalidLogo)
	}

	normalized, err := f.logoProcessor.Normalize(req.Body)
	if err != nil {
		return nil, NewBusinessError("INVALID_LOGO", "Logo must be a PNG, JPEG, GIF or WebP image", fmt.Errorf("%w: %w", ErrInvalidLogo, err))
	}

	previous := ""
	if row, err := f.onboardingRepo.ByWorkspace(ctx, req.WorkspaceID); err == nil && row != nil && row.Payload != nil {
		previous = utils.Deref(row.Payload.Logo)
	}

	key := fmt.Sprintf("programs/onboarding/%d/logo_%s", req.WorkspaceID, utils.Nanoid(utils.LogoKeySuffixLength))
	obj, err := f.storage.Upload(ctx, key, normalized, "image/png")
	if err != nil {
		if errors.Is(err, services.ErrObjectTooLarge) {
			return nil, NewBusinessError("INVALID_LOGO", "Logo is too large", fmt.Errorf("%w: %w", ErrInvalidLogo, err))
		}
		return nil, NewBusinessError("LOGO_UPLOAD_FAILED", "Failed to upload logo", err)
	}

	patch, _ := json.Marshal(map[string]string{"logo": obj.URL})
	if _, err := f.mergeStep(ctx, req.WorkspaceID, patch); err != nil {
		_ = f.storage.Delete(ctx, obj.Key)
		return nil, err
	}

	if staged, ok := f.storage.KeyFromURL(previous); ok && staged != obj.Key {
		if err := f.storage.Delete(ctx, staged); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", staged).Msg("failed to delete replaced onboarding logo")
		}
	}

	_ = createAuditLog(ctx, f.auditRepo, auditEntry{
		workspaceID: req.WorkspaceID,
		userID:      req.UserID,
		action:      models.AuditActionOnboardingLogoUpload,
		description: "Onboarding logo uploaded",
		success:     true,
		details:     map[string]any{"key": obj.Key},
	}, metadata)

	return &dto.UploadOnboardingLogoResponse{Message: "Logo uploaded", URL: obj.URL}, nil
}

func toOnboardingResponse(row *models.ProgramOnboarding) *dto.OnboardingResponse {
	resp := &dto.OnboardingResponse{
		WorkspaceID: row.WorkspaceID,
		Status:      string(row.Status),
	}
	if !row.Payload.IsEmpty() {
		if raw, err := json.Marshal(row.Payload); err == nil {
			resp.Data = raw
		}
	}
	if !row.UpdatedAt.IsZero() {
		resp.UpdatedAt = row.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
