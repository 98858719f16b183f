// Package linksettings models the link settings form of a partner program: a
// draft seeded from the program, validated on blur and submitted through the
// update action.
package linksettings

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/amirphl/orochi-partners/app/dto"
	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/go-playground/validator/v10"
)

const (
	SuccessMessage = "Program updated successfully."
	FailureMessage = "Failed to update program."
)

var (
	ErrSubmitInFlight = errors.New("a submission is already in flight")
	ErrInvalidForm    = errors.New("form has invalid fields")
	ErrComingSoon     = errors.New("link structure is coming soon")
	ErrUnknownOption  = errors.New("unknown link structure")
)

// Field names match the update request's JSON keys
type Field string

const (
	FieldDomain          Field = "domain"
	FieldURL             Field = "url"
	FieldCookieLength    Field = "cookieLength"
	FieldDefaultFolderID Field = "defaultFolderId"
	FieldLinkStructure   Field = "linkStructure"
)

var allFields = []Field{FieldDomain, FieldURL, FieldCookieLength, FieldDefaultFolderID, FieldLinkStructure}

// Values is the editable state of the form
type Values struct {
	Domain          string  `json:"domain" validate:"required,hostname_rfc1123"`
	URL             string  `json:"url" validate:"required,web_url"`
	CookieLength    int     `json:"cookieLength" validate:"required,oneof=7 14 30 60 90 180"`
	DefaultFolderID *string `json:"defaultFolderId" validate:"omitempty,max=64"`
	LinkStructure   string  `json:"linkStructure" validate:"required,oneof=short query path"`
}

func (v Values) equal(o Values) bool {
	return v.Domain == o.Domain &&
		v.URL == o.URL &&
		v.CookieLength == o.CookieLength &&
		utils.Deref(v.DefaultFolderID) == utils.Deref(o.DefaultFolderID) &&
		v.LinkStructure == o.LinkStructure
}

func (v Values) fieldEqual(o Values, f Field) bool {
	switch f {
	case FieldDomain:
		return v.Domain == o.Domain
	case FieldURL:
		return v.URL == o.URL
	case FieldCookieLength:
		return v.CookieLength == o.CookieLength
	case FieldDefaultFolderID:
		return utils.Deref(v.DefaultFolderID) == utils.Deref(o.DefaultFolderID)
	case FieldLinkStructure:
		return v.LinkStructure == o.LinkStructure
	}
	return true
}

// Updater sends the form to the server update action
type Updater interface {
	UpdateLinkSettings(ctx context.Context, req *dto.UpdateLinkSettingsRequest) (*dto.UpdateLinkSettingsResponse, error)
}

// FolderSource lists the folders a program may default new links to
type FolderSource interface {
	ListFolders(ctx context.Context, workspaceID uint) ([]dto.FolderItem, error)
}

// CacheInvalidator drops cached reads by key
type CacheInvalidator interface {
	Invalidate(key string)
}

// Toaster shows transient notifications
type Toaster interface {
	Success(message string)
	Error(message string)
}

// UserMessage is implemented by errors that carry a message meant for the user
type UserMessage interface {
	UserMessage() string
}

type Deps struct {
	Updater Updater
	Folders FolderSource
	Cache   CacheInvalidator
	Toast   Toaster
}

// Form is safe for concurrent use
type Form struct {
	mu          sync.Mutex
	deps        Deps
	workspaceID uint
	program     dto.ProgramResponse
	validate    *validator.Validate

	baseline Values
	draft    Values
	errs     map[Field]string

	folders        []dto.FolderItem
	foldersLoading bool
	submitting     bool
}

// NewForm seeds the draft from program
func NewForm(program dto.ProgramResponse, workspaceID uint, deps Deps) *Form {
	values := valuesFrom(program)
	return &Form{
		deps:        deps,
		workspaceID: workspaceID,
		program:     program,
		validate:    utils.NewValidator(),
		baseline:    values,
		draft:       values,
		errs:        make(map[Field]string),
	}
}

func valuesFrom(p dto.ProgramResponse) Values {
	var folderID *string
	if p.DefaultFolderID != nil {
		folderID = utils.ToPtr(*p.DefaultFolderID)
	}
	return Values{
		Domain:          p.Domain,
		URL:             p.URL,
		CookieLength:    p.CookieLength,
		DefaultFolderID: folderID,
		LinkStructure:   p.LinkStructure,
	}
}

func (f *Form) SetDomain(domain string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Domain = strings.TrimSpace(domain)
}

func (f *Form) SetURL(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.URL = strings.TrimSpace(url)
}

func (f *Form) SetCookieLength(days int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.CookieLength = days
}

// SetDefaultFolderID selects a folder. An empty id clears the selection.
func (f *Form) SetDefaultFolderID(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == "" {
		f.draft.DefaultFolderID = nil
		return
	}
	f.draft.DefaultFolderID = utils.ToPtr(id)
}

// SetLinkStructure selects a link structure. Options that are coming soon are
// inert and leave the draft unchanged, unless the program already uses one.
func (f *Form) SetLinkStructure(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, opt := range f.optionsLocked() {
		if string(opt.ID) != id {
			continue
		}
		if opt.ComingSoon && id != f.program.LinkStructure {
			return ErrComingSoon
		}
		f.draft.LinkStructure = id
		return nil
	}
	return ErrUnknownOption
}

// LinkStructureOptions lists the strategies for the saved program's domain and
// URL, not the draft's
func (f *Form) LinkStructureOptions() []models.LinkStructureOption {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.optionsLocked()
}

func (f *Form) optionsLocked() []models.LinkStructureOption {
	return models.LinkStructureOptions(f.program.Domain, f.program.URL)
}

func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Blur validates a single field, as when it loses focus
func (f *Form) Blur(field Field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.validateLocked()
	if msg, ok := all[field]; ok {
		f.errs[field] = msg
		return
	}
	delete(f.errs, field)
}

// Error returns the message of a field validated by Blur or Submit
func (f *Form) Error(field Field) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[field]
}

func (f *Form) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.validateLocked()) == 0
}

func (f *Form) IsDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.draft.equal(f.baseline)
}

func (f *Form) Dirty(field Field) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.draft.fieldEqual(f.baseline, field)
}

func (f *Form) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// CanSave reports whether the save control is enabled
func (f *Form) CanSave() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.submitting && !f.draft.equal(f.baseline) && len(f.validateLocked()) == 0
}

func (f *Form) validateLocked() map[Field]string {
	out := make(map[Field]string)
	err := f.validate.Struct(f.draft)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := Field(fe.Field())
			if _, seen := out[field]; !seen {
				out[field] = fieldMessage(fe)
			}
		}
	}
	if _, bad := out[FieldLinkStructure]; !bad && f.draft.LinkStructure != f.program.LinkStructure &&
		!models.IsSelectableLinkStructure(models.LinkStructure(f.draft.LinkStructure)) {
		out[FieldLinkStructure] = "This link structure is coming soon"
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch Field(fe.Field()) {
	case FieldDomain:
		if fe.Tag() == "required" {
			return "Domain is required"
		}
		return "Enter a valid domain"
	case FieldURL:
		if fe.Tag() == "required" {
			return "Destination URL is required"
		}
		return "Enter a valid URL"
	case FieldCookieLength:
		if fe.Tag() == "required" {
			return "Select a cookie length"
		}
		return "Cookie length must be 7, 14, 30, 60, 90 or 180 days"
	case FieldDefaultFolderID:
		return "Invalid folder"
	case FieldLinkStructure:
		return "Select a link structure"
	}
	return fe.Field() + " is invalid"
}

// LoadFolders fetches the folder options. The folder control is disabled until
// the lookup returns.
func (f *Form) LoadFolders(ctx context.Context) error {
	f.mu.Lock()
	f.foldersLoading = true
	f.mu.Unlock()

	folders, err := f.deps.Folders.ListFolders(ctx, f.workspaceID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.foldersLoading = false
	if err != nil {
		return err
	}
	f.folders = folders
	return nil
}

func (f *Form) Folders() []dto.FolderItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dto.FolderItem(nil), f.folders...)
}

func (f *Form) FolderSelectDisabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.foldersLoading
}

// Submit sends the draft to the update action. On success the submitted values
// become the new baseline; on failure the draft stays dirty.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}
	if errs := f.validateLocked(); len(errs) > 0 {
		for _, field := range allFields {
			if msg, ok := errs[field]; ok {
				f.errs[field] = msg
			}
		}
		f.mu.Unlock()
		return ErrInvalidForm
	}
	submitted := f.draft
	if submitted.DefaultFolderID != nil {
		submitted.DefaultFolderID = utils.ToPtr(*submitted.DefaultFolderID)
	}
	programID := f.program.ID
	f.submitting = true
	f.mu.Unlock()

	resp, err := f.deps.Updater.UpdateLinkSettings(ctx, &dto.UpdateLinkSettingsRequest{
		WorkspaceID:     f.workspaceID,
		ProgramID:       programID,
		Domain:          submitted.Domain,
		URL:             submitted.URL,
		CookieLength:    submitted.CookieLength,
		DefaultFolderID: submitted.DefaultFolderID,
		LinkStructure:   submitted.LinkStructure,
	})

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.mu.Unlock()
		f.deps.Toast.Error(failureMessage(err))
		return err
	}
	f.baseline = submitted
	if resp != nil && resp.Program.ID != "" {
		f.program = resp.Program
	}
	f.mu.Unlock()

	f.deps.Cache.Invalidate(utils.ProgramCacheKey(programID, f.workspaceID))
	f.deps.Toast.Success(SuccessMessage)
	return nil
}

func failureMessage(err error) string {
	var um UserMessage
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}
	return FailureMessage
}
