package handlers

import (
	"strings"

	"github.com/amirphl/orochi-partners/app/dto"
	businessflow "github.com/amirphl/orochi-partners/business_flow"
	"github.com/gofiber/fiber/v3"
)

// ProgramHandlerInterface defines the contract for program handlers
type ProgramHandlerInterface interface {
	Create(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	UpdateLinkSettings(c fiber.Ctx) error
	ListFolders(c fiber.Ctx) error
	LinkStructures(c fiber.Ctx) error
}

// ProgramHandler serves program provisioning and settings endpoints
type ProgramHandler struct {
	provisioning businessflow.ProgramProvisioningFlow
	settings     businessflow.ProgramSettingsFlow
	appBaseURL   string
}

// NewProgramHandler creates a program handler. Redirects after provisioning are
// resolved against appBaseURL when it is set.
func NewProgramHandler(provisioning businessflow.ProgramProvisioningFlow, settings businessflow.ProgramSettingsFlow, appBaseURL string) *ProgramHandler {
	return &ProgramHandler{
		provisioning: provisioning,
		settings:     settings,
		appBaseURL:   strings.TrimSuffix(appBaseURL, "/"),
	}
}

// Create provisions the workspace program from its staged onboarding data
// @Summary Create program
// @Description Provision a program from the staged onboarding data and redirect to it. Logo, partner invites and campaign import run in the background.
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param workspaceId path int true "Workspace ID"
// @Success 303 "Redirect to the new program"
// @Failure 400 {object} dto.APIResponse "Missing onboarding data"
// @Failure 403 {object} dto.APIResponse "Domain not owned"
// @Failure 422 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Failed to create program"
// @Router /api/v1/workspaces/{workspaceId}/programs [post]
func (h *ProgramHandler) Create(c fiber.Ctx) error {
	userID, workspaceID, ok := principal(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Workspace context not found", "MISSING_WORKSPACE_CONTEXT", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/workspaces/{workspaceId}/programs", defaultRequestTimeout)
	defer cancel()

	result, err := h.provisioning.CreateProgram(ctx, &dto.CreateProgramRequest{
		WorkspaceID: workspaceID,
		UserID:      userID,
	}, clientMetadata(c))
	if err != nil {
		return businessErrorResponse(c, err, "Failed to create program")
	}

	return c.Redirect().Status(fiber.StatusSeeOther).To(h.appBaseURL + result.RedirectURL)
}

// Get returns a program of the workspace
// @Summary Get program
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param workspaceId path int true "Workspace ID"
// @Param programId path string true "Program ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProgramResponse} "Program"
// @Failure 404 {object} dto.APIResponse "Program not found"
// @Router /api/v1/workspaces/{workspaceId}/programs/{programId} [get]
func (h *ProgramHandler) Get(c fiber.Ctx) error {
	_, workspaceID, ok := principal(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Workspace context not found", "MISSING_WORKSPACE_CONTEXT", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/workspaces/{workspaceId}/programs/{programId}", defaultRequestTimeout)
	defer cancel()

	result, err := h.settings.GetProgram(ctx, workspaceID, c.Params("programId"))
	if err != nil {
		return businessErrorResponse(c, err, "Failed to load program")
	}
	return successResponse(c, fiber.StatusOK, "Program retrieved", result)
}

// UpdateLinkSettings updates the link configuration of a program
// @Summary Update program link settings
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workspaceId path int true "Workspace ID"
// @Param programId path string true "Program ID"
// @Param request body dto.UpdateLinkSettingsRequest true "Link settings"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateLinkSettingsResponse} "Program updated"
// @Failure 403 {object} dto.APIResponse "Domain not owned"
// @Failure 404 {object} dto.APIResponse "Program or folder not found"
// @Failure 422 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Failed to update program"
// @Router /api/v1/workspaces/{workspaceId}/programs/{programId}/link-settings [patch]
func (h *ProgramHandler) UpdateLinkSettings(c fiber.Ctx) error {
	userID, workspaceID, ok := principal(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Workspace context not found", "MISSING_WORKSPACE_CONTEXT", nil)
	}

	var req dto.UpdateLinkSettingsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", nil)
	}
	if req.WorkspaceID != 0 && req.WorkspaceID != workspaceID {
		return errorResponse(c, fiber.StatusBadRequest, "Workspace does not match the request path", "WORKSPACE_MISMATCH", nil)
	}
	req.WorkspaceID = workspaceID
	req.UserID = userID
	req.ProgramID = c.Params("programId")

	ctx, cancel := createRequestContext(c, "/api/v1/workspaces/{workspaceId}/programs/{programId}/link-settings", defaultRequestTimeout)
	defer cancel()

	result, err := h.settings.UpdateLinkSettings(ctx, &req, clientMetadata(c))
	if err != nil {
		return businessErrorResponse(c, err, "Failed to update program")
	}
	return successResponse(c, fiber.StatusOK, result.Message, result)
}

// ListFolders lists the folder options of the workspace
// @Summary List folders
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param workspaceId path int true "Workspace ID"
// @Success 200 {object} dto.APIResponse{data=dto.ListFoldersResponse} "Folders"
// @Router /api/v1/workspaces/{workspaceId}/folders [get]
func (h *ProgramHandler) ListFolders(c fiber.Ctx) error {
	_, workspaceID, ok := principal(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Workspace context not found", "MISSING_WORKSPACE_CONTEXT", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/workspaces/{workspaceId}/folders", defaultRequestTimeout)
	defer cancel()

	result, err := h.settings.ListFolders(ctx, workspaceID)
	if err != nil {
		return businessErrorResponse(c, err, "Failed to load folders")
	}
	return successResponse(c, fiber.StatusOK, result.Message, result)
}

// LinkStructures lists the link structure options of a program
// @Summary List link structures
// @Tags Programs
// @Produce json
// @Security BearerAuth
// @Param workspaceId path int true "Workspace ID"
// @Param programId path string true "Program ID"
// @Success 200 {object} dto.APIResponse{data=dto.LinkStructureOptionsResponse} "Link structures"
// @Failure 404 {object} dto.APIResponse "Program not found"
// @Router /api/v1/workspaces/{workspaceId}/programs/{programId}/link-structures [get]
func (h *ProgramHandler) LinkStructures(c fiber.Ctx) error {
	_, workspaceID, ok := principal(c)
	if !ok {
		return errorResponse(c, fiber.StatusUnauthorized, "Workspace context not found", "MISSING_WORKSPACE_CONTEXT", nil)
	}

	ctx, cancel := createRequestContext(c, "/api/v1/workspaces/{workspaceId}/programs/{programId}/link-structures", defaultRequestTimeout)
	defer cancel()

	result, err := h.settings.LinkStructureOptions(ctx, workspaceID, c.Params("programId"))
	if err != nil {
		return businessErrorResponse(c, err, "Failed to load link structures")
	}
	return successResponse(c, fiber.StatusOK, result.Message, result)
}
