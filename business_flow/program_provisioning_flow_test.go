package businessflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/amirphl/orochi-partners/app/dto"
	"github.com/amirphl/orochi-partners/app/services"
	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createReq() *dto.CreateProgramRequest {
	return &dto.CreateProgramRequest{WorkspaceID: testWorkspaceID, UserID: testUserID}
}

func TestCreateProgramSuccess(t *testing.T) {
	env := newFlowEnv(t)
	data := validOnboardingData()
	data.SupportEmail = utils.ToPtr("help@acme.com")
	env.stage(data)

	resp, err := env.provisioning.CreateProgram(context.Background(), createReq(), NewClientMetadata("10.0.0.1", "test"))
	require.NoError(t, err)
	assert.Equal(t, "/acme/program?onboarded-program=true", resp.RedirectURL)
	assert.True(t, strings.HasPrefix(resp.ProgramID, "prog_"))

	programs := env.db.programsOf(testWorkspaceID)
	require.Len(t, programs, 1)
	program := programs[0]
	assert.Equal(t, resp.ProgramID, program.ID)
	assert.Equal(t, "acme", program.Slug)
	assert.Equal(t, "acme.link", program.Domain)
	assert.Equal(t, "https://acme.com", program.URL)
	assert.Equal(t, models.DefaultCookieLength, program.CookieLength)
	assert.Equal(t, models.LinkStructureShort, program.LinkStructure)
	assert.Equal(t, "help@acme.com", utils.Deref(program.SupportEmail))

	require.Equal(t, 1, env.db.countFolders(testWorkspaceID, utils.PartnerLinksFolderName))
	require.NotNil(t, program.DefaultFolderID)
	folder := env.db.folders[*program.DefaultFolderID]
	assert.Equal(t, utils.PartnerLinksFolderName, folder.Name)
	assert.Equal(t, models.FolderAccessWrite, folder.AccessLevel)
	require.Len(t, env.db.folderUsers, 1)
	assert.Equal(t, testUserID, env.db.folderUsers[0].UserID)
	assert.Equal(t, models.FolderRoleOwner, env.db.folderUsers[0].Role)

	ws := env.workspace()
	assert.Equal(t, program.ID, utils.Deref(ws.DefaultProgramID))
	assert.Equal(t, 1, ws.FoldersUsage)

	row := env.onboardingRow()
	assert.Equal(t, models.OnboardingStatusConsumed, row.Status)
	assert.Nil(t, row.Payload)
	assert.NotNil(t, row.ConsumedAt)

	assert.Contains(t, env.db.auditActions(), models.AuditActionProgramCreated)
}

func TestCreateProgramMissingOnboardingData(t *testing.T) {
	t.Run("no staging row", func(t *testing.T) {
		env := newFlowEnv(t)
		_, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
		require.Error(t, err)
		assert.True(t, IsMissingOnboardingData(err))
		assert.Empty(t, env.db.programsOf(testWorkspaceID))
		assert.Zero(t, env.db.countFolders(testWorkspaceID, utils.PartnerLinksFolderName))
		assert.Empty(t, env.db.auditActions())
	})

	t.Run("already consumed", func(t *testing.T) {
		env := newFlowEnv(t)
		env.db.onboardings[testWorkspaceID] = models.ProgramOnboarding{
			ID: 1, WorkspaceID: testWorkspaceID, Status: models.OnboardingStatusConsumed,
		}
		_, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
		assert.True(t, IsMissingOnboardingData(err))
		assert.Empty(t, env.db.programsOf(testWorkspaceID))
	})

	t.Run("empty payload", func(t *testing.T) {
		env := newFlowEnv(t)
		env.stage(models.ProgramOnboardingData{})
		_, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
		assert.True(t, IsMissingOnboardingData(err))
		assert.Zero(t, env.db.countFolders(testWorkspaceID, utils.PartnerLinksFolderName))
	})
}

func TestCreateProgramValidationError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *models.ProgramOnboardingData)
		field  string
	}{
		{"missing name", func(d *models.ProgramOnboardingData) { d.Name = "" }, "name"},
		{"bad url", func(d *models.ProgramOnboardingData) { d.URL = "acme.com" }, "url"},
		{"bad partner email", func(d *models.ProgramOnboardingData) {
			d.Partners = []models.OnboardingPartner{{Email: "nope"}}
		}, "partners[0].email"},
		{"percentage over 100", func(d *models.ProgramOnboardingData) {
			d.Type = utils.ToPtr(models.RewardTypePercentage)
			d.Amount = utils.ToPtr(150)
		}, "amount"},
		{"rewardful without id", func(d *models.ProgramOnboardingData) {
			d.Rewardful = &models.RewardfulImport{}
		}, "rewardful.id"},
		{"duplicate partner emails", func(d *models.ProgramOnboardingData) {
			d.Partners = []models.OnboardingPartner{{Email: "ann@example.com"}, {Email: "ann@example.com"}}
		}, "partners"},
		{"coming soon link structure", func(d *models.ProgramOnboardingData) {
			d.LinkStructure = models.LinkStructureQuery
		}, "linkStructure"},
		{"foreign logo url", func(d *models.ProgramOnboardingData) {
			d.Logo = utils.ToPtr("http://169.254.169.254/latest/meta-data/")
		}, "logo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newFlowEnv(t)
			data := validOnboardingData()
			tt.mutate(&data)
			env.stage(data)

			_, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
			require.Error(t, err)
			assert.True(t, IsOnboardingValidation(err))

			var fields []string
			for _, f := range ValidationFields(err) {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
			assert.Zero(t, env.db.countFolders(testWorkspaceID, utils.PartnerLinksFolderName))
			assert.Equal(t, models.OnboardingStatusPending, env.onboardingRow().Status)
		})
	}
}

func TestCreateProgramDomainNotOwned(t *testing.T) {
	for _, domain := range []string{"globex.link", "pending.link", "unknown.link"} {
		t.Run(domain, func(t *testing.T) {
			env := newFlowEnv(t)
			data := validOnboardingData()
			data.Domain = domain
			data.Type = utils.ToPtr(models.RewardTypeFlat)
			data.Amount = utils.ToPtr(1000)
			env.stage(data)

			_, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
			require.Error(t, err)
			assert.True(t, IsDomainNotOwned(err))

			assert.Zero(t, env.db.countFolders(testWorkspaceID, utils.PartnerLinksFolderName))
			assert.Empty(t, env.db.programsOf(testWorkspaceID))
			assert.Empty(t, env.db.rewards)
			assert.Equal(t, models.OnboardingStatusPending, env.onboardingRow().Status)
		})
	}
}

func TestCreateProgramConcurrentSingleFolder(t *testing.T) {
	env := newFlowEnv(t)
	env.stage(validOnboardingData())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.True(t, IsMissingOnboardingData(err) || IsProgramCreationFailed(err), err.Error())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, env.db.countFolders(testWorkspaceID, utils.PartnerLinksFolderName))
	assert.Len(t, env.db.programsOf(testWorkspaceID), 1)
}

func TestCreateProgramDefaultReward(t *testing.T) {
	tests := []struct {
		name    string
		typ     *string
		amount  *int
		rewards int
	}{
		{"type and amount", utils.ToPtr(models.RewardTypeFlat), utils.ToPtr(2500), 1},
		{"percentage", utils.ToPtr(models.RewardTypePercentage), utils.ToPtr(20), 1},
		{"type only", utils.ToPtr(models.RewardTypeFlat), nil, 0},
		{"amount only", nil, utils.ToPtr(2500), 0},
		{"zero amount", utils.ToPtr(models.RewardTypeFlat), utils.ToPtr(0), 0},
		{"neither", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newFlowEnv(t)
			data := validOnboardingData()
			data.DefaultRewardType = models.RewardEventLead
			data.Type = tt.typ
			data.Amount = tt.amount
			data.MaxDuration = utils.ToPtr(12)
			env.stage(data)

			resp, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
			require.NoError(t, err)

			rewards := env.db.rewardsOf(resp.ProgramID)
			require.Len(t, rewards, tt.rewards)
			if tt.rewards == 1 {
				r := rewards[0]
				assert.True(t, r.Default)
				assert.Equal(t, models.RewardEventLead, r.Event)
				assert.Equal(t, *tt.typ, r.Type)
				assert.Equal(t, *tt.amount, r.Amount)
				assert.Equal(t, 12, utils.Deref(r.MaxDuration))
			}
		})
	}
}

func TestCreateProgramInvoicePrefix(t *testing.T) {
	t.Run("assigned when empty", func(t *testing.T) {
		env := newFlowEnv(t)
		env.stage(validOnboardingData())

		_, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
		require.NoError(t, err)

		prefix := utils.Deref(env.workspace().InvoicePrefix)
		assert.Len(t, prefix, utils.InvoicePrefixLength)
	})

	t.Run("existing prefix kept", func(t *testing.T) {
		env := newFlowEnv(t)
		ws := env.db.workspaces[testWorkspaceID]
		ws.InvoicePrefix = utils.ToPtr("ACME0001")
		env.db.workspaces[testWorkspaceID] = ws
		env.stage(validOnboardingData())

		_, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
		require.NoError(t, err)
		assert.Equal(t, "ACME0001", utils.Deref(env.workspace().InvoicePrefix))
	})
}

func TestCreateProgramTransactionFailureRollsBack(t *testing.T) {
	for _, op := range []string{"program.save", "reward.save", "workspace.apply", "onboarding.consume"} {
		t.Run(op, func(t *testing.T) {
			env := newFlowEnv(t)
			data := validOnboardingData()
			data.Type = utils.ToPtr(models.RewardTypeFlat)
			data.Amount = utils.ToPtr(500)
			env.stage(data)
			env.db.failOn(op, errors.New("connection reset"))

			_, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
			require.Error(t, err)
			assert.True(t, IsProgramCreationFailed(err))

			var be *BusinessError
			require.ErrorAs(t, err, &be)
			assert.Equal(t, "PROGRAM_CREATION_FAILED", be.Code)
			assert.Equal(t, "Failed to create program", be.Message)

			assert.Empty(t, env.db.programsOf(testWorkspaceID))
			assert.Empty(t, env.db.rewards)
			ws := env.workspace()
			assert.Nil(t, ws.DefaultProgramID)
			assert.Nil(t, ws.InvoicePrefix)
			row := env.onboardingRow()
			assert.Equal(t, models.OnboardingStatusPending, row.Status)
			assert.NotNil(t, row.Payload)
			assert.Contains(t, env.db.auditActions(), models.AuditActionProgramCreationFailed)
		})
	}
}

func TestCreateProgramClearsStagingWhenSideEffectsFail(t *testing.T) {
	env := newFlowEnv(t)
	env.notifier.err = errors.New("smtp down")
	env.db.failOn("link.save", errors.New("link store unavailable"))

	data := validOnboardingData()
	data.Logo = utils.ToPtr(testCDN + "/programs/onboarding/1/logo_missing")
	data.Partners = []models.OnboardingPartner{{Email: "ann@example.com"}, {Email: "bob@example.com"}}
	data.Rewardful = &models.RewardfulImport{ID: "camp_1"}
	env.stage(data)

	resp, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
	require.NoError(t, err)
	env.dispatcher.Wait()

	row := env.onboardingRow()
	assert.Equal(t, models.OnboardingStatusConsumed, row.Status)
	assert.Nil(t, row.Payload)

	program := env.db.programs[resp.ProgramID]
	assert.Nil(t, program.Logo)
	assert.Empty(t, env.db.enrollmentsOf(resp.ProgramID))
	assert.Empty(t, env.importer.jobs)
}

func TestCreateProgramPartnerInvites(t *testing.T) {
	env := newFlowEnv(t)
	env.seedLink("acme.link", "taken")

	data := validOnboardingData()
	data.Type = utils.ToPtr(models.RewardTypePercentage)
	data.Amount = utils.ToPtr(30)
	data.Partners = []models.OnboardingPartner{
		{Email: "ann@example.com"},
		{Email: "bob@example.com", Key: utils.ToPtr("taken")},
		{Email: "cat@example.com", Key: utils.ToPtr("cat"), Name: utils.ToPtr("Cat Stevens")},
	}
	env.stage(data)

	resp, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
	require.NoError(t, err)
	env.dispatcher.Wait()

	reward := env.db.rewardsOf(resp.ProgramID)
	require.Len(t, reward, 1)

	enrollments := env.db.enrollmentsOf(resp.ProgramID)
	require.Len(t, enrollments, 2)
	partnerEmails := map[string]bool{}
	for _, e := range enrollments {
		assert.Equal(t, models.EnrollmentStatusInvited, e.Status)
		assert.Equal(t, reward[0].ID, utils.Deref(e.RewardID))
		require.NotNil(t, e.LinkID)

		link := env.db.links[*e.LinkID]
		assert.Equal(t, e.PartnerID, utils.Deref(link.PartnerID))
		assert.Equal(t, resp.ProgramID, utils.Deref(link.ProgramID))
		assert.Equal(t, "https://acme.com", link.URL)
		assert.True(t, link.TrackConversion)
		assert.NotNil(t, link.FolderID)

		partner := env.db.partners[e.PartnerID]
		partnerEmails[partner.Email] = true
		if partner.Email == "ann@example.com" {
			assert.Equal(t, "ann", partner.Name)
			assert.Len(t, link.Key, utils.PartnerLinkKeyLength)
		}
		if partner.Email == "cat@example.com" {
			assert.Equal(t, "Cat Stevens", partner.Name)
			assert.Equal(t, "cat", link.Key)
			assert.Equal(t, "https://acme.link/cat", link.ShortLink)
		}
	}
	assert.Equal(t, map[string]bool{"ann@example.com": true, "cat@example.com": true}, partnerEmails)
	assert.Len(t, env.db.links, 3)

	assert.Equal(t, []string{"ann@example.com", "cat@example.com"}, env.notifier.recipients())
	for _, msg := range env.notifier.sent {
		assert.Equal(t, "Acme Partners invited you to join Orochi Partners", msg.Subject)
		assert.Contains(t, msg.HTMLBody, "https://partners.test/acme")
	}
}

func TestCreateProgramFinalizesLogo(t *testing.T) {
	env := newFlowEnv(t)
	staged, err := env.storage.Upload(context.Background(), "programs/onboarding/1/logo_staged", testPNG(t, 128, 128), "image/png")
	require.NoError(t, err)

	data := validOnboardingData()
	data.Logo = utils.ToPtr(staged.URL)
	env.stage(data)

	resp, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
	require.NoError(t, err)
	env.dispatcher.Wait()

	program := env.db.programs[resp.ProgramID]
	require.NotNil(t, program.Logo)
	assert.True(t, strings.HasPrefix(*program.Logo, testCDN+"/programs/"+resp.ProgramID+"/logo_"))

	_, err = env.storage.Fetch(context.Background(), *program.Logo)
	assert.NoError(t, err)
	_, err = env.storage.Fetch(context.Background(), staged.URL)
	assert.Error(t, err, "staged logo is removed after finalization")
}

func TestCreateProgramLogoFromDataURI(t *testing.T) {
	env := newFlowEnv(t)
	data := validOnboardingData()
	data.Logo = utils.ToPtr("data:image/png;base64," + encodeBase64(testPNG(t, 16, 16)))
	env.stage(data)

	resp, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
	require.NoError(t, err)
	env.dispatcher.Wait()

	program := env.db.programs[resp.ProgramID]
	require.NotNil(t, program.Logo)
	assert.True(t, env.storage.IsStored(*program.Logo))
}

func TestCreateProgramQueuesCampaignImport(t *testing.T) {
	env := newFlowEnv(t)
	env.importer.creds[testWorkspaceID] = services.ImporterCredentials{UserID: testUserID, Token: "rw_token"}

	data := validOnboardingData()
	data.ProgramType = utils.ToPtr(models.ProgramTypeImport)
	data.Rewardful = &models.RewardfulImport{ID: "camp_42"}
	env.stage(data)

	resp, err := env.provisioning.CreateProgram(context.Background(), createReq(), nil)
	require.NoError(t, err)
	env.dispatcher.Wait()

	creds := env.importer.creds[testWorkspaceID]
	assert.Equal(t, "camp_42", creds.CampaignID)
	assert.Equal(t, "rw_token", creds.Token)
	require.Len(t, env.importer.jobs, 1)
	assert.Equal(t, resp.ProgramID, env.importer.jobs[0].ProgramID)
	assert.Equal(t, utils.ImportCampaignAction, env.importer.jobs[0].Action)
}

func TestCreateProgramRequiresWorkspace(t *testing.T) {
	env := newFlowEnv(t)

	_, err := env.provisioning.CreateProgram(context.Background(), nil, nil)
	assert.Error(t, err)

	_, err = env.provisioning.CreateProgram(context.Background(), &dto.CreateProgramRequest{WorkspaceID: 99, UserID: testUserID}, nil)
	assert.True(t, IsWorkspaceNotFound(err))
}
