package handlers

import (
	"io"

	"github.com/amirphl/orochi-partners/app/dto"
	businessflow "github.com/amirphl/orochi-partners/business_flow"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// OnboardingHandlerInterface defines the contract for program onboarding handlers
type OnboardingHandlerInterface interface {
	SaveStep(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	UploadLogo(c fiber.Ctx) error
}

// OnboardingHandler stages program onboarding data of a workspace
type OnboardingHandler struct {
	flow      businessflow.OnboardingFlow
	validator *validator.Validate
}

func NewOnboardingHandler(flow businessflow.OnboardingFlow) *OnboardingHandler {
	return &OnboardingHandler{
		flow:      flow,
		validator: utils.NewValidator(),
	}
}

// SaveStep merges one onboarding step into the staged data
// @Summary Save onboarding step
// @Description Merge the keys of data into the staged program onboarding data. A null value removes the key.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workspaceId path int true "Workspace ID"
// @Param request body dto.SaveOnboardingStepRequest true "Onboarding step"
// @Success 200 {object} dto.APIResponse{data=dto.OnboardingResponse} "Step saved"
// @Failure 400 {object} dto.APIResponse "Invalid step"
// @Failure 409 {object} dto.APIResponse "Program already provisioned"
// @Failure 422 {object} dto.APIResponse "Validation error"
// @Router /api/v1/workspaces/{workspaceId}/onboarding [patch]
func (h *OnboardingHandler) SaveStep(c fiber.Ctx) error {
	userID, workspaceID, ok := principal(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Workspace context not found", "MISSING_WORKSPACE_CONTEXT", nil)
	}

	var req dto.SaveOnboardingStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return validationErrorResponse(c, err)
	}
	req.WorkspaceID = workspaceID
	req.UserID = userID

	ctx, cancel := createRequestContext(c, "/api/v1/workspaces/{workspaceId}/onboarding", defaultRequestTimeout)
	defer cancel()

	result, err := h.flow.SaveOnboardingStep(ctx, &req, clientMetadata(c))
	if err != nil {
		return businessErrorResponse(c, err, "Failed to save onboarding data")
	}
	return successResponse(c, fiber.StatusOK, result.Message, result)
}

// Get returns the staged onboarding data
// @Summary Get onboarding data
// @Tags Onboarding
// @Produce json
// @Security BearerAuth
// @Param workspaceId path int true "Workspace ID"
// @Success 200 {object} dto.APIResponse{data=dto.OnboardingResponse} "Onboarding data"
// @Failure 404 {object} dto.APIResponse "No onboarding data"
// @Router /api/v1/workspaces/{workspaceId}/onboarding [get]
func (h *OnboardingHandler) Get(c fiber.Ctx) error {
	_, workspaceID, ok := principal(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Workspace context not found", "MISSING_WORKSPACE_CONTEXT", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/workspaces/{workspaceId}/onboarding", defaultRequestTimeout)
	defer cancel()

	result, err := h.flow.GetOnboarding(ctx, workspaceID)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to load onboarding data")
	}
	return successResponse(c, fiber.StatusOK, result.Message, result)
}

// UploadLogo stores a logo for the program being onboarded
// @Summary Upload onboarding logo
// @Description Upload a PNG, JPEG, GIF or WebP logo. The image is normalized to PNG and its URL staged as the program logo.
// @Tags Onboarding
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param workspaceId path int true "Workspace ID"
// @Param file formData file true "Logo image"
// @Success 201 {object} dto.APIResponse{data=dto.UploadOnboardingLogoResponse} "Logo uploaded"
// @Failure 400 {object} dto.APIResponse "Invalid logo"
// @Failure 409 {object} dto.APIResponse "Program already provisioned"
// @Router /api/v1/workspaces/{workspaceId}/onboarding/logo [post]
func (h *OnboardingHandler) UploadLogo(c fiber.Ctx) error {
	userID, workspaceID, ok := principal(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Workspace context not found", "MISSING_WORKSPACE_CONTEXT", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return errorResponse(c, fiber.StatusBadRequest, "file is required", "INVALID_LOGO", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_LOGO", nil)
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid file", "INVALID_LOGO", nil)
	}

	req := dto.UploadOnboardingLogoRequest{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Body:        body,
	}

	ctx, cancel := createRequestContext(c, "/api/v1/workspaces/{workspaceId}/onboarding/logo", defaultRequestTimeout)
	defer cancel()

	result, err := h.flow.UploadOnboardingLogo(ctx, &req, clientMetadata(c))
	if err != nil {
		return businessErrorResponse(c, err, "Failed to upload logo")
	}
	return successResponse(c, fiber.StatusCreated, result.Message, result)
}
