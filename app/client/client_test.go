package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/amirphl/orochi-partners/app/dto"
	"github.com/amirphl/orochi-partners/app/forms/linksettings"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ linksettings.Updater          = (*Client)(nil)
	_ linksettings.FolderSource     = (*Client)(nil)
	_ linksettings.CacheInvalidator = (*Client)(nil)
)

type apiServer struct {
	*httptest.Server
	programReads atomic.Int32
	lastPatch    map[string]any
	lastAuth     string
	patchStatus  int
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	s := &apiServer{patchStatus: http.StatusOK}
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, status int, resp dto.APIResponse) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
	mux.HandleFunc("GET /api/v1/workspaces/3/programs/prog_1", func(w http.ResponseWriter, r *http.Request) {
		s.programReads.Add(1)
		s.lastAuth = r.Header.Get("Authorization")
		write(w, http.StatusOK, dto.APIResponse{Success: true, Message: "Program retrieved", Data: dto.ProgramResponse{
			ID: "prog_1", WorkspaceID: 3, Domain: "acme.link", URL: "https://acme.com", CookieLength: 90, LinkStructure: "short",
		}})
	})
	mux.HandleFunc("GET /api/v1/workspaces/3/programs/prog_missing", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusNotFound, dto.APIResponse{Message: "Program not found", Error: dto.ErrorDetail{Code: "PROGRAM_NOT_FOUND"}})
	})
	mux.HandleFunc("GET /api/v1/workspaces/3/folders", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.ListFoldersResponse{Items: []dto.FolderItem{{ID: "fold_1", Name: "Partner Links", AccessLevel: "write"}}}})
	})
	mux.HandleFunc("GET /api/v1/workspaces/3/programs/prog_1/link-structures", func(w http.ResponseWriter, r *http.Request) {
		write(w, http.StatusOK, dto.APIResponse{Success: true, Data: dto.LinkStructureOptionsResponse{Items: []dto.LinkStructureOptionItem{{ID: "short"}, {ID: "query", ComingSoon: true}}}})
	})
	mux.HandleFunc("PATCH /api/v1/workspaces/3/programs/prog_1/link-settings", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.lastPatch = map[string]any{}
		_ = json.Unmarshal(body, &s.lastPatch)
		if s.patchStatus != http.StatusOK {
			write(w, s.patchStatus, dto.APIResponse{Message: "Domain does not belong to this workspace", Error: dto.ErrorDetail{Code: "DOMAIN_NOT_OWNED"}})
			return
		}
		write(w, http.StatusOK, dto.APIResponse{Success: true, Message: "Program updated successfully.", Data: dto.UpdateLinkSettingsResponse{
			Message: "Program updated successfully.",
			Program: dto.ProgramResponse{ID: "prog_1", WorkspaceID: 3, Domain: "acme.link", CookieLength: 30, LinkStructure: "short"},
		}})
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func TestGetProgramCachesUntilInvalidated(t *testing.T) {
	srv := newAPIServer(t)
	c := New(srv.URL, "token-1", WithCacheTTL(0))
	ctx := context.Background()

	p, err := c.GetProgram(ctx, 3, "prog_1")
	require.NoError(t, err)
	assert.Equal(t, "acme.link", p.Domain)
	assert.Equal(t, "Bearer token-1", srv.lastAuth)

	_, err = c.GetProgram(ctx, 3, "prog_1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.programReads.Load())

	c.Invalidate(utils.ProgramCacheKey("prog_1", 3))
	_, err = c.GetProgram(ctx, 3, "prog_1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.programReads.Load())
}

func TestGetProgramNotFound(t *testing.T) {
	srv := newAPIServer(t)
	c := New(srv.URL, "token-1")

	_, err := c.GetProgram(context.Background(), 3, "prog_missing")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "PROGRAM_NOT_FOUND", apiErr.Code)
	assert.Equal(t, "Program not found", apiErr.UserMessage())
}

func TestListFoldersAndOptions(t *testing.T) {
	srv := newAPIServer(t)
	c := New(srv.URL, "token-1")
	ctx := context.Background()

	folders, err := c.ListFolders(ctx, 3)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "fold_1", folders[0].ID)

	options, err := c.LinkStructureOptions(ctx, 3, "prog_1")
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.True(t, options[1].ComingSoon)
}

func TestUpdateLinkSettings(t *testing.T) {
	srv := newAPIServer(t)
	c := New(srv.URL, "token-1")

	resp, err := c.UpdateLinkSettings(context.Background(), &dto.UpdateLinkSettingsRequest{
		WorkspaceID:     3,
		ProgramID:       "prog_1",
		Domain:          "acme.link",
		URL:             "https://acme.com",
		CookieLength:    30,
		DefaultFolderID: utils.ToPtr("fold_1"),
		LinkStructure:   "short",
	})
	require.NoError(t, err)

	assert.Equal(t, "Program updated successfully.", resp.Message)
	assert.Equal(t, 30, resp.Program.CookieLength)
	assert.Equal(t, float64(3), srv.lastPatch["workspaceId"])
	assert.Equal(t, "acme.link", srv.lastPatch["domain"])
	assert.Equal(t, float64(30), srv.lastPatch["cookieLength"])
	assert.Equal(t, "fold_1", srv.lastPatch["defaultFolderId"])
	assert.NotContains(t, srv.lastPatch, "ProgramID")
}

func TestUpdateLinkSettingsServerError(t *testing.T) {
	srv := newAPIServer(t)
	srv.patchStatus = http.StatusForbidden
	c := New(srv.URL, "token-1")

	_, err := c.UpdateLinkSettings(context.Background(), &dto.UpdateLinkSettingsRequest{WorkspaceID: 3, ProgramID: "prog_1"})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "DOMAIN_NOT_OWNED", apiErr.Code)
}

type recordingToaster struct{ successes, errors []string }

func (r *recordingToaster) Success(m string) { r.successes = append(r.successes, m) }
func (r *recordingToaster) Error(m string)   { r.errors = append(r.errors, m) }

func TestFormRoundTrip(t *testing.T) {
	srv := newAPIServer(t)
	c := New(srv.URL, "token-1", WithCacheTTL(0))
	ctx := context.Background()

	program, err := c.GetProgram(ctx, 3, "prog_1")
	require.NoError(t, err)

	toast := &recordingToaster{}
	form := linksettings.NewForm(*program, 3, linksettings.Deps{Updater: c, Folders: c, Cache: c, Toast: toast})
	require.NoError(t, form.LoadFolders(ctx))
	form.SetCookieLength(30)
	require.NoError(t, form.Submit(ctx))

	assert.Equal(t, []string{"Program updated successfully."}, toast.successes)

	_, err = c.GetProgram(ctx, 3, "prog_1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.programReads.Load(), "submit drops the cached program")

	srv.patchStatus = http.StatusForbidden
	form.SetCookieLength(60)
	require.Error(t, form.Submit(ctx))
	assert.Equal(t, []string{"Domain does not belong to this workspace"}, toast.errors)
	assert.True(t, form.IsDirty())
}
