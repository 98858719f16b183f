package businessflow

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/amirphl/orochi-partners/app/services"
	"github.com/amirphl/orochi-partners/config"
	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/stretchr/testify/require"
)

const (
	testWorkspaceID uint = 1
	testUserID      uint = 7
	testCDN              = "https://cdn.test/assets"
)

type flowEnv struct {
	db         *memDB
	storage    *services.LocalStorageService
	notifier   *fakeNotifier
	importer   *fakeImporter
	cache      *fakeProgramCache
	dispatcher *BestEffortDispatcherImpl

	domainVerifier DomainVerifier
	linkFlow       LinkFlow
	enrollmentFlow PartnerEnrollmentFlow
	provisioning   ProgramProvisioningFlow
	settings       ProgramSettingsFlow
	onboarding     OnboardingFlow
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()

	db := newMemDB()
	tx := &memTransactor{db: db}
	workspaceRepo := &fakeWorkspaceRepo{db: db}
	domainRepo := &fakeDomainRepo{db: db}
	folderRepo := &fakeFolderRepo{db: db}
	programRepo := &fakeProgramRepo{db: db}
	rewardRepo := &fakeRewardRepo{db: db}
	partnerRepo := &fakePartnerRepo{db: db}
	enrollmentRepo := &fakeEnrollmentRepo{db: db}
	linkRepo := &fakeLinkRepo{db: db}
	onboardingRepo := &fakeOnboardingRepo{db: db}
	auditRepo := &fakeAuditRepo{db: db}

	env := &flowEnv{
		db: db,
		storage: services.NewLocalStorageService(config.StorageConfig{
			RootDir:       t.TempDir(),
			PublicBaseURL: testCDN,
			MaxLogoBytes:  1 << 20,
		}),
		notifier:   &fakeNotifier{},
		importer:   newFakeImporter(),
		cache:      newFakeProgramCache(),
		dispatcher: NewBestEffortDispatcher(4),
	}
	t.Cleanup(env.dispatcher.Wait)

	logoProcessor := services.NewLogoProcessor(64)
	env.domainVerifier = NewDomainVerifier(domainRepo)
	env.linkFlow = NewLinkFlow(linkRepo, env.domainVerifier)
	env.enrollmentFlow = NewPartnerEnrollmentFlow(partnerRepo, enrollmentRepo, linkRepo, tx)
	env.provisioning = NewProgramProvisioningFlow(
		workspaceRepo, onboardingRepo, folderRepo, programRepo, rewardRepo, auditRepo, tx,
		env.domainVerifier, env.linkFlow, env.enrollmentFlow,
		env.storage, logoProcessor, env.notifier, env.importer, env.dispatcher,
		config.PartnersConfig{BrandName: "Orochi", PartnersBaseURL: "https://partners.test"},
	)
	env.settings = NewProgramSettingsFlow(programRepo, folderRepo, auditRepo, env.domainVerifier, env.cache)
	env.onboarding = NewOnboardingFlow(onboardingRepo, auditRepo, env.storage, logoProcessor)

	db.workspaces[testWorkspaceID] = models.Workspace{ID: testWorkspaceID, Slug: "acme", Name: "Acme"}
	db.workspaces[2] = models.Workspace{ID: 2, Slug: "globex", Name: "Globex"}
	db.members[[2]uint{testWorkspaceID, testUserID}] = models.WorkspaceRoleOwner
	db.domains["acme.link"] = models.Domain{ID: 1, Slug: "acme.link", WorkspaceID: testWorkspaceID, Verified: true}
	db.domains["pending.link"] = models.Domain{ID: 2, Slug: "pending.link", WorkspaceID: testWorkspaceID}
	db.domains["globex.link"] = models.Domain{ID: 3, Slug: "globex.link", WorkspaceID: 2, Verified: true}

	return env
}

func validOnboardingData() models.ProgramOnboardingData {
	return models.ProgramOnboardingData{
		Name:              "Acme Partners",
		Domain:            "acme.link",
		URL:               "https://acme.com",
		LinkStructure:     models.LinkStructureShort,
		DefaultRewardType: models.RewardEventSale,
	}
}

func (e *flowEnv) stage(data models.ProgramOnboardingData) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	e.db.onboardings[testWorkspaceID] = models.ProgramOnboarding{
		ID:          1,
		WorkspaceID: testWorkspaceID,
		Payload:     &data,
		Status:      models.OnboardingStatusPending,
	}
}

func (e *flowEnv) onboardingRow() models.ProgramOnboarding {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	return e.db.onboardings[testWorkspaceID]
}

func (e *flowEnv) workspace() models.Workspace {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	return e.db.workspaces[testWorkspaceID]
}

func (e *flowEnv) seedProgram(id string) models.Program {
	p := models.Program{
		ID:            id,
		WorkspaceID:   testWorkspaceID,
		Name:          "Acme Partners",
		Slug:          "acme",
		Domain:        "acme.link",
		URL:           "https://acme.com",
		CookieLength:  models.DefaultCookieLength,
		LinkStructure: models.LinkStructureShort,
	}
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	e.db.programs[id] = p
	return p
}

func (e *flowEnv) seedFolder(id string, workspaceID uint, name string) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	e.db.folders[id] = models.Folder{ID: id, WorkspaceID: workspaceID, Name: name, AccessLevel: models.FolderAccessWrite}
}

func (e *flowEnv) seedLink(domain, key string) {
	e.db.mu.Lock()
	defer e.db.mu.Unlock()
	id := utils.CreateID(utils.LinkIDPrefix)
	e.db.links[id] = models.Link{ID: id, WorkspaceID: testWorkspaceID, Domain: domain, Key: key, URL: "https://acme.com"}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{B: 180, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
