package dto

import "encoding/json"

// SaveOnboardingStepRequest merges one onboarding step into the staged program data.
// Keys of Data overwrite the staged keys; a null value removes the key.
type SaveOnboardingStepRequest struct {
	WorkspaceID uint            `json:"-"`
	UserID      uint            `json:"-"`
	Data        json.RawMessage `json:"data" validate:"required"`
}

// OnboardingResponse returns the staged onboarding data of a workspace.
type OnboardingResponse struct {
	Message     string          `json:"message"`
	WorkspaceID uint            `json:"workspace_id"`
	Status      string          `json:"status"`
	Data        json.RawMessage `json:"data,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// UploadOnboardingLogoRequest carries a logo file uploaded during onboarding.
type UploadOnboardingLogoRequest struct {
	WorkspaceID uint   `json:"-"`
	UserID      uint   `json:"-"`
	Filename    string `json:"-"`
	ContentType string `json:"-" validate:"required"`
	Body        []byte `json:"-" validate:"required"`
}

// UploadOnboardingLogoResponse returns the transient URL of the uploaded logo.
type UploadOnboardingLogoResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// CreateProgramRequest provisions a program from the staged onboarding data of a workspace.
type CreateProgramRequest struct {
	WorkspaceID uint `json:"-" validate:"required"`
	UserID      uint `json:"-" validate:"required"`
}

// CreateProgramResponse is returned after the program is provisioned.
type CreateProgramResponse struct {
	Message     string `json:"message"`
	ProgramID   string `json:"program_id"`
	RedirectURL string `json:"redirect_url"`
}

// UpdateLinkSettingsRequest updates the link configuration of a program.
type UpdateLinkSettingsRequest struct {
	WorkspaceID     uint    `json:"workspaceId"`
	ProgramID       string  `json:"-"`
	UserID          uint    `json:"-"`
	Domain          string  `json:"domain" validate:"required,hostname_rfc1123"`
	URL             string  `json:"url" validate:"required,web_url"`
	CookieLength    int     `json:"cookieLength" validate:"required"`
	DefaultFolderID *string `json:"defaultFolderId,omitempty" validate:"omitempty,max=64"`
	LinkStructure   string  `json:"linkStructure" validate:"required,oneof=short query path"`
}

// ProgramResponse is the public representation of a program.
type ProgramResponse struct {
	ID              string  `json:"id"`
	WorkspaceID     uint    `json:"workspace_id"`
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	Domain          string  `json:"domain"`
	URL             string  `json:"url"`
	CookieLength    int     `json:"cookie_length"`
	DefaultFolderID *string `json:"default_folder_id,omitempty"`
	LinkStructure   string  `json:"link_structure"`
	SupportEmail    *string `json:"support_email,omitempty"`
	HelpURL         *string `json:"help_url,omitempty"`
	TermsURL        *string `json:"terms_url,omitempty"`
	Logo            *string `json:"logo,omitempty"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// UpdateLinkSettingsResponse returns the program after its link settings changed.
type UpdateLinkSettingsResponse struct {
	Message string          `json:"message"`
	Program ProgramResponse `json:"program"`
}

// FolderItem is a folder option of a workspace.
type FolderItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessLevel string `json:"access_level"`
}

// ListFoldersResponse lists the folders of a workspace.
type ListFoldersResponse struct {
	Message string       `json:"message"`
	Items   []FolderItem `json:"items"`
}

// LinkStructureOptionItem is one selectable naming strategy for partner links.
type LinkStructureOptionItem struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	Example    string `json:"example"`
	ComingSoon bool   `json:"coming_soon"`
}

// LinkStructureOptionsResponse lists link structure options computed from the program.
type LinkStructureOptionsResponse struct {
	Message string                    `json:"message"`
	Items   []LinkStructureOptionItem `json:"items"`
}
