package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/amirphl/orochi-partners/models"
	testutil "github.com/amirphl/orochi-partners/testing"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFolderCreateIfNotExistsConcurrent(t *testing.T) {
	tdb := testutil.RequireDB(t)
	fixtures := testutil.NewTestFixtures(tdb)
	ws, err := fixtures.CreateTestWorkspace(1)
	require.NoError(t, err)

	repo := NewFolderRepository(tdb.DB)
	ctx := context.Background()

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[string]struct{}{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			folder := &models.Folder{
				ID:          utils.CreateID(utils.FolderIDPrefix),
				Name:        utils.PartnerLinksFolderName,
				WorkspaceID: ws.ID,
				AccessLevel: models.FolderAccessWrite,
			}
			got, ok, err := repo.CreateIfNotExists(ctx, folder, 1)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[got.ID] = struct{}{}
			if ok {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ids, 1)

	count, err := repo.Count(ctx, models.FolderFilter{WorkspaceID: &ws.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	var grants int64
	require.NoError(t, tdb.DB.Model(&models.FolderUser{}).Count(&grants).Error)
	assert.EqualValues(t, 1, grants)
}

func TestWorkspaceApplyProgramProvisioned(t *testing.T) {
	tdb := testutil.RequireDB(t)
	fixtures := testutil.NewTestFixtures(tdb)
	repo := NewWorkspaceRepository(tdb.DB)
	ctx := context.Background()

	t.Run("assigns prefix when empty", func(t *testing.T) {
		ws, err := fixtures.CreateTestWorkspace(1)
		require.NoError(t, err)

		require.NoError(t, repo.ApplyProgramProvisioned(ctx, ws.ID, "prog_1", "ABCD1234"))

		got, err := repo.ByID(ctx, ws.ID)
		require.NoError(t, err)
		assert.Equal(t, "ABCD1234", utils.Deref(got.InvoicePrefix))
		assert.Equal(t, "prog_1", utils.Deref(got.DefaultProgramID))
		assert.Equal(t, 1, got.FoldersUsage)
	})

	t.Run("keeps existing prefix", func(t *testing.T) {
		ws, err := fixtures.CreateTestWorkspace(2)
		require.NoError(t, err)
		require.NoError(t, tdb.DB.Model(ws).Update("invoice_prefix", "KEEPME00").Error)

		require.NoError(t, repo.ApplyProgramProvisioned(ctx, ws.ID, "prog_2", "NEWPREFX"))

		got, err := repo.ByID(ctx, ws.ID)
		require.NoError(t, err)
		assert.Equal(t, "KEEPME00", utils.Deref(got.InvoicePrefix))
	})
}

func TestProgramOnboardingMarkConsumedOnce(t *testing.T) {
	tdb := testutil.RequireDB(t)
	fixtures := testutil.NewTestFixtures(tdb)
	ws, err := fixtures.CreateTestWorkspace(1)
	require.NoError(t, err)
	_, err = fixtures.CreateTestOnboarding(ws.ID, &models.ProgramOnboardingData{Name: "Acme"})
	require.NoError(t, err)

	repo := NewProgramOnboardingRepository(tdb.DB)
	ctx := context.Background()

	require.NoError(t, repo.MarkConsumed(ctx, ws.ID))
	assert.ErrorIs(t, repo.MarkConsumed(ctx, ws.ID), ErrOnboardingNotPending)

	row, err := repo.ByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, models.OnboardingStatusConsumed, row.Status)
	assert.True(t, row.Payload.IsEmpty())
	assert.NotNil(t, row.ConsumedAt)
}

func TestWithTransactionRollsBack(t *testing.T) {
	tdb := testutil.RequireDB(t)
	fixtures := testutil.NewTestFixtures(tdb)
	ws, err := fixtures.CreateTestWorkspace(1)
	require.NoError(t, err)
	_, err = fixtures.CreateTestDomain(ws.ID, "acme.link")
	require.NoError(t, err)

	programs := NewProgramRepository(tdb.DB)
	tx := NewTransactor(tdb.DB)
	ctx := context.Background()

	program := &models.Program{
		ID:            utils.CreateID(utils.ProgramIDPrefix),
		WorkspaceID:   ws.ID,
		Name:          "Acme",
		Slug:          ws.Slug,
		Domain:        "acme.link",
		URL:           "https://acme.com",
		CookieLength:  models.DefaultCookieLength,
		LinkStructure: models.LinkStructureShort,
	}
	err = tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := programs.Save(txCtx, program); err != nil {
			return err
		}
		return NewProgramOnboardingRepository(tdb.DB).MarkConsumed(txCtx, ws.ID)
	})
	assert.ErrorIs(t, err, ErrOnboardingNotPending)

	got, err := programs.ByID(ctx, program.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLinkDuplicateKey(t *testing.T) {
	tdb := testutil.RequireDB(t)
	fixtures := testutil.NewTestFixtures(tdb)
	ws, err := fixtures.CreateTestWorkspace(1)
	require.NoError(t, err)

	repo := NewLinkRepository(tdb.DB)
	ctx := context.Background()
	newLink := func() *models.Link {
		return &models.Link{
			ID:          utils.CreateID(utils.LinkIDPrefix),
			WorkspaceID: ws.ID,
			Domain:      "acme.link",
			Key:         "jane",
			URL:         "https://acme.com",
			ShortLink:   models.BuildShortLink("acme.link", "jane"),
		}
	}

	require.NoError(t, repo.Save(ctx, newLink()))
	assert.ErrorIs(t, repo.Save(ctx, newLink()), ErrDuplicateKey)

	found, err := repo.ByDomainAndKey(ctx, "acme.link", "jane")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "https://acme.link/jane", found.ShortLink)
}

func TestProgramUpdateLinkSettings(t *testing.T) {
	tdb := testutil.RequireDB(t)
	fixtures := testutil.NewTestFixtures(tdb)
	ws, err := fixtures.CreateTestWorkspace(1)
	require.NoError(t, err)
	program, err := fixtures.CreateTestProgram(ws, "acme.link")
	require.NoError(t, err)
	folder, err := fixtures.CreateTestFolder(ws.ID, "Campaigns")
	require.NoError(t, err)

	repo := NewProgramRepository(tdb.DB)
	ctx := context.Background()

	err = repo.UpdateLinkSettings(ctx, program.ID, ProgramLinkSettings{
		Domain:          "go.acme.com",
		URL:             "https://acme.com/pricing",
		CookieLength:    30,
		DefaultFolderID: &folder.ID,
		LinkStructure:   models.LinkStructureShort,
	})
	require.NoError(t, err)

	got, err := repo.ByID(ctx, program.ID)
	require.NoError(t, err)
	assert.Equal(t, "go.acme.com", got.Domain)
	assert.Equal(t, 30, got.CookieLength)
	assert.Equal(t, folder.ID, utils.Deref(got.DefaultFolderID))

	err = repo.UpdateLinkSettings(ctx, "prog_missing", ProgramLinkSettings{
		Domain: "x.com", URL: "https://x.com", CookieLength: 7, LinkStructure: models.LinkStructureShort,
	})
	assert.Error(t, err)
}
