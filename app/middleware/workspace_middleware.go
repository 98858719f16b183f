package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/amirphl/orochi-partners/app/dto"
	"github.com/amirphl/orochi-partners/logging"
	"github.com/amirphl/orochi-partners/repository"
	"github.com/gofiber/fiber/v3"
)

const workspaceLookupTimeout = 5 * time.Second

// WorkspaceGuard resolves the :workspaceId route parameter and rejects users
// that are not members of it. It must run after Authenticate.
type WorkspaceGuard struct {
	workspaceRepo repository.WorkspaceRepository
}

func NewWorkspaceGuard(workspaceRepo repository.WorkspaceRepository) *WorkspaceGuard {
	return &WorkspaceGuard{workspaceRepo: workspaceRepo}
}

func (g *WorkspaceGuard) RequireMember() fiber.Handler {
	return func(c fiber.Ctx) error {
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			return unauthorized(c, "Authentication required", "AUTHENTICATION_REQUIRED")
		}

		id, err := strconv.ParseUint(c.Params("workspaceId"), 10, 64)
		if err != nil || id == 0 {
			workspaceDenials.WithLabelValues("invalid_id").Inc()
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false,
				Message: "Invalid workspace ID",
				Error:   dto.ErrorDetail{Code: "INVALID_WORKSPACE_ID"},
			})
		}
		workspaceID := uint(id)

		ctx, cancel := context.WithTimeout(context.Background(), workspaceLookupTimeout)
		defer cancel()

		workspace, err := g.workspaceRepo.ByID(ctx, workspaceID)
		if err != nil {
			logging.Error().Err(err).Uint("workspace_id", workspaceID).Msg("workspace lookup failed")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false,
				Message: "Failed to load workspace",
				Error:   dto.ErrorDetail{Code: "WORKSPACE_LOOKUP_FAILED"},
			})
		}
		if workspace == nil {
			workspaceDenials.WithLabelValues("not_found").Inc()
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false,
				Message: "Workspace not found",
				Error:   dto.ErrorDetail{Code: "WORKSPACE_NOT_FOUND"},
			})
		}

		member, err := g.workspaceRepo.IsMember(ctx, workspaceID, userID)
		if err != nil {
			logging.Error().Err(err).Uint("workspace_id", workspaceID).Uint("user_id", userID).Msg("workspace membership lookup failed")
			return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
				Success: false,
				Message: "Failed to load workspace",
				Error:   dto.ErrorDetail{Code: "WORKSPACE_LOOKUP_FAILED"},
			})
		}
		if !member {
			workspaceDenials.WithLabelValues("not_member").Inc()
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "You do not have access to this workspace",
				Error:   dto.ErrorDetail{Code: "WORKSPACE_ACCESS_DENIED"},
			})
		}

		c.Locals("workspace_id", workspaceID)
		c.Locals("workspace_slug", workspace.Slug)
		return c.Next()
	}
}
