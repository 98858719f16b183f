// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/orochi-partners/app/dto"
	businessflow "github.com/amirphl/orochi-partners/business_flow"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

const defaultRequestTimeout = 30 * time.Second

// businessErrorStatus maps business error codes to HTTP status codes. Codes not
// listed here are internal failures.
var businessErrorStatus = map[string]int{
	"INVALID_REQUEST":             fiber.StatusBadRequest,
	"MISSING_ONBOARDING_DATA":     fiber.StatusBadRequest,
	"INVALID_ONBOARDING_STEP":     fiber.StatusBadRequest,
	"INVALID_LOGO":                fiber.StatusBadRequest,
	"VALIDATION_ERROR":            fiber.StatusUnprocessableEntity,
	"INVALID_COOKIE_LENGTH":       fiber.StatusUnprocessableEntity,
	"LINK_STRUCTURE_UNAVAILABLE":  fiber.StatusUnprocessableEntity,
	"DOMAIN_NOT_OWNED":            fiber.StatusForbidden,
	"WORKSPACE_NOT_FOUND":         fiber.StatusNotFound,
	"PROGRAM_NOT_FOUND":           fiber.StatusNotFound,
	"FOLDER_NOT_FOUND":            fiber.StatusNotFound,
	"ONBOARDING_NOT_FOUND":        fiber.StatusNotFound,
	"PROGRAM_ALREADY_PROVISIONED": fiber.StatusConflict,
}

// StatusForBusinessError returns the HTTP status of a business error code
func StatusForBusinessError(code string) int {
	if status, ok := businessErrorStatus[code]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func successResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// businessErrorResponse writes err as an error APIResponse. Internal failures
// only expose fallback, never the cause.
func businessErrorResponse(c fiber.Ctx, err error, fallback string) error {
	var be *businessflow.BusinessError
	if !errors.As(err, &be) {
		return errorResponse(c, fiber.StatusInternalServerError, fallback, "INTERNAL_ERROR", nil)
	}

	status := StatusForBusinessError(be.Code)
	if status == fiber.StatusInternalServerError {
		return errorResponse(c, status, fallback, be.Code, nil)
	}

	var details any
	if fields := businessflow.ValidationFields(err); len(fields) > 0 {
		details = fields
	}
	return errorResponse(c, status, be.Message, be.Code, details)
}

// validationErrorResponse reports handler-level DTO validation failures in the
// same shape the flows use.
func validationErrorResponse(c fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request", "INVALID_REQUEST", err.Error())
	}
	fields := make([]businessflow.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, businessflow.FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: getValidationErrorMessage(fe),
		})
	}
	return errorResponse(c, fiber.StatusUnprocessableEntity, "Invalid request", "VALIDATION_ERROR", fields)
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

func requestID(c fiber.Ctx) string {
	if id := c.Get("X-Request-ID"); id != "" {
		return id
	}
	return c.GetRespHeader("X-Request-ID")
}

func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(requestID(c))
	return metadata
}

// createRequestContext detaches the flow from fasthttp's pooled context and
// carries the request scoped values the logger and audit log read.
func createRequestContext(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestID(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	if userID, ok := c.Locals("user_id").(uint); ok && userID != 0 {
		ctx = context.WithValue(ctx, utils.UserIDKey, userID)
	}
	if workspaceID, ok := c.Locals("workspace_id").(uint); ok && workspaceID != 0 {
		ctx = context.WithValue(ctx, utils.WorkspaceKey, workspaceID)
	}
	return ctx, cancel
}

// principal returns the authenticated user and the workspace resolved by the
// workspace guard.
func principal(c fiber.Ctx) (userID, workspaceID uint, ok bool) {
	userID, uok := c.Locals("user_id").(uint)
	workspaceID, wok := c.Locals("workspace_id").(uint)
	return userID, workspaceID, uok && wok && userID != 0 && workspaceID != 0
}
