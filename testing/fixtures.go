package testing

import (
	"fmt"

	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestWorkspace creates a workspace with userID as its owner
func (tf *TestFixtures) CreateTestWorkspace(userID uint) (*models.Workspace, error) {
	slug := "acme-" + utils.GenerateRandomString(6)
	ws := &models.Workspace{
		UUID: uuid.New(),
		Slug: slug,
		Name: "Acme " + slug,
		Plan: "business",
	}
	if err := tf.DB.DB.Create(ws).Error; err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	member := &models.WorkspaceUser{WorkspaceID: ws.ID, UserID: userID, Role: models.WorkspaceRoleOwner}
	if err := tf.DB.DB.Create(member).Error; err != nil {
		return nil, fmt.Errorf("failed to add workspace owner: %w", err)
	}

	return ws, nil
}

// CreateTestDomain registers a verified domain for the workspace
func (tf *TestFixtures) CreateTestDomain(workspaceID uint, slug string) (*models.Domain, error) {
	domain := &models.Domain{Slug: slug, WorkspaceID: workspaceID, Verified: true, Primary: true}
	if err := tf.DB.DB.Create(domain).Error; err != nil {
		return nil, fmt.Errorf("failed to create domain %s: %w", slug, err)
	}
	return domain, nil
}

// CreateTestFolder creates a folder in the workspace
func (tf *TestFixtures) CreateTestFolder(workspaceID uint, name string) (*models.Folder, error) {
	folder := &models.Folder{
		ID:          utils.CreateID(utils.FolderIDPrefix),
		Name:        name,
		WorkspaceID: workspaceID,
		AccessLevel: models.FolderAccessWrite,
	}
	if err := tf.DB.DB.Create(folder).Error; err != nil {
		return nil, fmt.Errorf("failed to create folder %s: %w", name, err)
	}
	return folder, nil
}

// CreateTestProgram creates a program on domain for the workspace
func (tf *TestFixtures) CreateTestProgram(ws *models.Workspace, domain string) (*models.Program, error) {
	program := &models.Program{
		ID:            utils.CreateID(utils.ProgramIDPrefix),
		WorkspaceID:   ws.ID,
		Name:          "Acme Partners",
		Slug:          ws.Slug,
		Domain:        domain,
		URL:           "https://acme.com",
		CookieLength:  models.DefaultCookieLength,
		LinkStructure: models.LinkStructureShort,
	}
	if err := tf.DB.DB.Create(program).Error; err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}
	return program, nil
}

// CreateTestOnboarding stages onboarding data for the workspace
func (tf *TestFixtures) CreateTestOnboarding(workspaceID uint, data *models.ProgramOnboardingData) (*models.ProgramOnboarding, error) {
	row := &models.ProgramOnboarding{
		WorkspaceID: workspaceID,
		Payload:     data,
		Status:      models.OnboardingStatusPending,
	}
	if err := tf.DB.DB.Create(row).Error; err != nil {
		return nil, fmt.Errorf("failed to stage onboarding data: %w", err)
	}
	return row, nil
}
