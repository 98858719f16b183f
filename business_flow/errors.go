// Package businessflow contains the core business logic and use cases of the partner program service
package businessflow

import (
	"errors"
	"fmt"
	"strings"
)

// Business flow error constants
var (
	// Workspace errors
	ErrWorkspaceNotFound     = errors.New("workspace not found")
	ErrWorkspaceAccessDenied = errors.New("workspace access denied")

	// Onboarding errors
	ErrMissingOnboardingData     = errors.New("missing onboarding data")
	ErrOnboardingValidation      = errors.New("invalid onboarding data")
	ErrProgramAlreadyProvisioned = errors.New("program already provisioned from onboarding data")
	ErrInvalidLogo               = errors.New("invalid logo")

	// Provisioning errors
	ErrDomainNotOwned        = errors.New("domain is not owned by workspace")
	ErrProgramCreationFailed = errors.New("failed to create program")

	// Link settings errors
	ErrProgramNotFound          = errors.New("program not found")
	ErrFolderNotFound           = errors.New("folder not found")
	ErrLinkStructureUnavailable = errors.New("link structure is not available yet")
	ErrInvalidCookieLength      = errors.New("cookie length is not allowed")
	ErrInvalidLinkSettings      = errors.New("invalid link settings")

	// Link and partner errors
	ErrLinkKeyTaken     = errors.New("link key already exists on domain")
	ErrInvalidLinkInput = errors.New("invalid link input")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

// FieldError describes one invalid field of a request or payload
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every invalid field. It matches ErrOnboardingValidation
// or ErrInvalidLinkSettings through errors.Is depending on what was validated.
type ValidationError struct {
	Fields []FieldError
	kind   error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%v: %s", e.kind, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.kind
}

// ValidationFields returns the field errors carried by err, if any
func ValidationFields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

func IsWorkspaceNotFound(err error) bool {
	return errors.Is(err, ErrWorkspaceNotFound)
}

func IsWorkspaceAccessDenied(err error) bool {
	return errors.Is(err, ErrWorkspaceAccessDenied)
}

func IsMissingOnboardingData(err error) bool {
	return errors.Is(err, ErrMissingOnboardingData)
}

func IsOnboardingValidation(err error) bool {
	return errors.Is(err, ErrOnboardingValidation)
}

func IsProgramAlreadyProvisioned(err error) bool {
	return errors.Is(err, ErrProgramAlreadyProvisioned)
}

func IsInvalidLogo(err error) bool {
	return errors.Is(err, ErrInvalidLogo)
}

func IsDomainNotOwned(err error) bool {
	return errors.Is(err, ErrDomainNotOwned)
}

func IsProgramCreationFailed(err error) bool {
	return errors.Is(err, ErrProgramCreationFailed)
}

func IsProgramNotFound(err error) bool {
	return errors.Is(err, ErrProgramNotFound)
}

func IsFolderNotFound(err error) bool {
	return errors.Is(err, ErrFolderNotFound)
}

func IsLinkStructureUnavailable(err error) bool {
	return errors.Is(err, ErrLinkStructureUnavailable)
}

func IsInvalidCookieLength(err error) bool {
	return errors.Is(err, ErrInvalidCookieLength)
}

func IsInvalidLinkSettings(err error) bool {
	return errors.Is(err, ErrInvalidLinkSettings)
}

func IsLinkKeyTaken(err error) bool {
	return errors.Is(err, ErrLinkKeyTaken)
}
