package businessflow

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"

	"github.com/amirphl/orochi-partners/app/services"
	"github.com/amirphl/orochi-partners/models"
	"github.com/amirphl/orochi-partners/repository"
	"github.com/amirphl/orochi-partners/utils"
	"gorm.io/gorm"
)

var errNotImplemented = errors.New("not implemented in fake")

// memDB is an in-memory store shared by the fake repositories
type memDB struct {
	mu          sync.Mutex
	nextID      uint
	workspaces  map[uint]models.Workspace
	members     map[[2]uint]string
	domains     map[string]models.Domain
	folders     map[string]models.Folder
	folderUsers []models.FolderUser
	programs    map[string]models.Program
	rewards     map[string]models.Reward
	partners    map[string]models.Partner
	enrollments map[string]models.ProgramEnrollment
	links       map[string]models.Link
	onboardings map[uint]models.ProgramOnboarding
	audits      []models.AuditLog
	failures    map[string]error
}

func newMemDB() *memDB {
	return &memDB{
		nextID:      100,
		workspaces:  map[uint]models.Workspace{},
		members:     map[[2]uint]string{},
		domains:     map[string]models.Domain{},
		folders:     map[string]models.Folder{},
		programs:    map[string]models.Program{},
		rewards:     map[string]models.Reward{},
		partners:    map[string]models.Partner{},
		enrollments: map[string]models.ProgramEnrollment{},
		links:       map[string]models.Link{},
		onboardings: map[uint]models.ProgramOnboarding{},
		failures:    map[string]error{},
	}
}

// failOn makes the named operation return err
func (db *memDB) failOn(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failures[op] = err
}

func (db *memDB) failure(op string) error {
	return db.failures[op]
}

type memSnapshot struct {
	workspaces  map[uint]models.Workspace
	members     map[[2]uint]string
	domains     map[string]models.Domain
	folders     map[string]models.Folder
	folderUsers []models.FolderUser
	programs    map[string]models.Program
	rewards     map[string]models.Reward
	partners    map[string]models.Partner
	enrollments map[string]models.ProgramEnrollment
	links       map[string]models.Link
	onboardings map[uint]models.ProgramOnboarding
}

func (db *memDB) snapshot() memSnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	return memSnapshot{
		workspaces:  maps.Clone(db.workspaces),
		members:     maps.Clone(db.members),
		domains:     maps.Clone(db.domains),
		folders:     maps.Clone(db.folders),
		folderUsers: append([]models.FolderUser(nil), db.folderUsers...),
		programs:    maps.Clone(db.programs),
		rewards:     maps.Clone(db.rewards),
		partners:    maps.Clone(db.partners),
		enrollments: maps.Clone(db.enrollments),
		links:       maps.Clone(db.links),
		onboardings: maps.Clone(db.onboardings),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.workspaces = s.workspaces
	db.members = s.members
	db.domains = s.domains
	db.folders = s.folders
	db.folderUsers = s.folderUsers
	db.programs = s.programs
	db.rewards = s.rewards
	db.partners = s.partners
	db.enrollments = s.enrollments
	db.links = s.links
	db.onboardings = s.onboardings
}

func (db *memDB) countFolders(workspaceID uint, name string) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	n := 0
	for _, f := range db.folders {
		if f.WorkspaceID == workspaceID && f.Name == name {
			n++
		}
	}
	return n
}

func (db *memDB) programsOf(workspaceID uint) []models.Program {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.Program
	for _, p := range db.programs {
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}
	return out
}

func (db *memDB) rewardsOf(programID string) []models.Reward {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.Reward
	for _, r := range db.rewards {
		if r.ProgramID == programID {
			out = append(out, r)
		}
	}
	return out
}

func (db *memDB) enrollmentsOf(programID string) []models.ProgramEnrollment {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.ProgramEnrollment
	for _, e := range db.enrollments {
		if e.ProgramID == programID {
			out = append(out, e)
		}
	}
	return out
}

func (db *memDB) auditActions() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]string, 0, len(db.audits))
	for _, a := range db.audits {
		out = append(out, a.Action)
	}
	return out
}

// unusedRepo satisfies the generic repository methods the flows never call
type unusedRepo[T any, F any] struct{}

func (unusedRepo[T, F]) ByFilter(context.Context, F, string, int, int) ([]*T, error) {
	return nil, errNotImplemented
}
func (unusedRepo[T, F]) SaveBatch(context.Context, []*T) error        { return errNotImplemented }
func (unusedRepo[T, F]) Count(context.Context, F) (int64, error)      { return 0, errNotImplemented }
func (unusedRepo[T, F]) Exists(context.Context, F) (bool, error)      { return false, errNotImplemented }

type txKey struct{}

type memTransactor struct {
	db *memDB
	mu sync.Mutex
}

func (t *memTransactor) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.db.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

type fakeWorkspaceRepo struct {
	unusedRepo[models.Workspace, models.WorkspaceFilter]
	db *memDB
}

func (r *fakeWorkspaceRepo) Save(_ context.Context, w *models.Workspace) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if w.ID == 0 {
		r.db.nextID++
		w.ID = r.db.nextID
	}
	r.db.workspaces[w.ID] = *w
	return nil
}

func (r *fakeWorkspaceRepo) ByID(_ context.Context, id uint) (*models.Workspace, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("workspace.by_id"); err != nil {
		return nil, err
	}
	w, ok := r.db.workspaces[id]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (r *fakeWorkspaceRepo) BySlug(_ context.Context, slug string) (*models.Workspace, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, w := range r.db.workspaces {
		if w.Slug == slug {
			return &w, nil
		}
	}
	return nil, nil
}

func (r *fakeWorkspaceRepo) IsMember(_ context.Context, workspaceID, userID uint) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	_, ok := r.db.members[[2]uint{workspaceID, userID}]
	return ok, nil
}

func (r *fakeWorkspaceRepo) AddMember(_ context.Context, m *models.WorkspaceUser) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.members[[2]uint{m.WorkspaceID, m.UserID}] = m.Role
	return nil
}

func (r *fakeWorkspaceRepo) ApplyProgramProvisioned(_ context.Context, workspaceID uint, programID, invoicePrefix string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("workspace.apply"); err != nil {
		return err
	}
	w, ok := r.db.workspaces[workspaceID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	w.DefaultProgramID = utils.ToPtr(programID)
	w.FoldersUsage++
	if !w.HasInvoicePrefix() {
		w.InvoicePrefix = utils.ToPtr(invoicePrefix)
	}
	r.db.workspaces[workspaceID] = w
	return nil
}

type fakeDomainRepo struct {
	unusedRepo[models.Domain, models.DomainFilter]
	db *memDB
}

func (r *fakeDomainRepo) Save(_ context.Context, d *models.Domain) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.domains[d.Slug] = *d
	return nil
}

func (r *fakeDomainRepo) BySlug(_ context.Context, slug string) (*models.Domain, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	d, ok := r.db.domains[slug]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

type fakeFolderRepo struct {
	unusedRepo[models.Folder, models.FolderFilter]
	db *memDB
}

func (r *fakeFolderRepo) Save(_ context.Context, f *models.Folder) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.folders[f.ID] = *f
	return nil
}

func (r *fakeFolderRepo) ByID(_ context.Context, id string) (*models.Folder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	f, ok := r.db.folders[id]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (r *fakeFolderRepo) ByName(_ context.Context, workspaceID uint, name string) (*models.Folder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, f := range r.db.folders {
		if f.WorkspaceID == workspaceID && f.Name == name {
			return &f, nil
		}
	}
	return nil, nil
}

func (r *fakeFolderRepo) ListByWorkspace(_ context.Context, workspaceID uint) ([]*models.Folder, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.Folder
	for _, f := range r.db.folders {
		if f.WorkspaceID == workspaceID {
			out = append(out, &f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeFolderRepo) CreateIfNotExists(_ context.Context, folder *models.Folder, ownerUserID uint) (*models.Folder, bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("folder.upsert"); err != nil {
		return nil, false, err
	}
	for _, f := range r.db.folders {
		if f.WorkspaceID == folder.WorkspaceID && f.Name == folder.Name {
			return &f, false, nil
		}
	}
	r.db.folders[folder.ID] = *folder
	r.db.folderUsers = append(r.db.folderUsers, models.FolderUser{FolderID: folder.ID, UserID: ownerUserID, Role: models.FolderRoleOwner})
	return folder, true, nil
}

type fakeProgramRepo struct {
	unusedRepo[models.Program, models.ProgramFilter]
	db *memDB
}

func (r *fakeProgramRepo) Save(_ context.Context, p *models.Program) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("program.save"); err != nil {
		return err
	}
	now := utils.UTCNow()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	r.db.programs[p.ID] = *p
	return nil
}

func (r *fakeProgramRepo) ByID(_ context.Context, id string) (*models.Program, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.programs[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *fakeProgramRepo) UpdateLinkSettings(_ context.Context, id string, s repository.ProgramLinkSettings) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("program.update_link_settings"); err != nil {
		return err
	}
	p, ok := r.db.programs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Domain = s.Domain
	p.URL = s.URL
	p.CookieLength = s.CookieLength
	p.DefaultFolderID = s.DefaultFolderID
	p.LinkStructure = s.LinkStructure
	p.UpdatedAt = utils.UTCNow()
	r.db.programs[id] = p
	return nil
}

func (r *fakeProgramRepo) UpdateLogo(_ context.Context, id, logo string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("program.update_logo"); err != nil {
		return err
	}
	p, ok := r.db.programs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Logo = utils.ToPtr(logo)
	r.db.programs[id] = p
	return nil
}

type fakeRewardRepo struct {
	unusedRepo[models.Reward, models.RewardFilter]
	db *memDB
}

func (r *fakeRewardRepo) Save(_ context.Context, rw *models.Reward) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("reward.save"); err != nil {
		return err
	}
	if rw.Default {
		for _, other := range r.db.rewards {
			if other.ProgramID == rw.ProgramID && other.Default {
				return repository.ErrDuplicateKey
			}
		}
	}
	r.db.rewards[rw.ID] = *rw
	return nil
}

func (r *fakeRewardRepo) ByID(_ context.Context, id string) (*models.Reward, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rw, ok := r.db.rewards[id]
	if !ok {
		return nil, nil
	}
	return &rw, nil
}

func (r *fakeRewardRepo) DefaultForProgram(_ context.Context, programID string) (*models.Reward, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, rw := range r.db.rewards {
		if rw.ProgramID == programID && rw.Default {
			return &rw, nil
		}
	}
	return nil, nil
}

type fakePartnerRepo struct {
	unusedRepo[models.Partner, models.PartnerFilter]
	db *memDB
}

func (r *fakePartnerRepo) Save(_ context.Context, p *models.Partner) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.partners {
		if other.Email == p.Email && other.ID != p.ID {
			return repository.ErrDuplicateKey
		}
	}
	r.db.partners[p.ID] = *p
	return nil
}

func (r *fakePartnerRepo) ByID(_ context.Context, id string) (*models.Partner, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.partners[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *fakePartnerRepo) ByEmail(_ context.Context, email string) (*models.Partner, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, p := range r.db.partners {
		if p.Email == email {
			return &p, nil
		}
	}
	return nil, nil
}

type fakeEnrollmentRepo struct {
	unusedRepo[models.ProgramEnrollment, models.ProgramEnrollmentFilter]
	db *memDB
}

func (r *fakeEnrollmentRepo) Save(_ context.Context, e *models.ProgramEnrollment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, other := range r.db.enrollments {
		if other.ProgramID == e.ProgramID && other.PartnerID == e.PartnerID && other.ID != e.ID {
			return repository.ErrDuplicateKey
		}
	}
	r.db.enrollments[e.ID] = *e
	return nil
}

func (r *fakeEnrollmentRepo) ByProgramAndPartner(_ context.Context, programID, partnerID string) (*models.ProgramEnrollment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, e := range r.db.enrollments {
		if e.ProgramID == programID && e.PartnerID == partnerID {
			return &e, nil
		}
	}
	return nil, nil
}

type fakeLinkRepo struct {
	unusedRepo[models.Link, models.LinkFilter]
	db *memDB
}

func (r *fakeLinkRepo) Save(_ context.Context, l *models.Link) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("link.save"); err != nil {
		return err
	}
	for _, other := range r.db.links {
		if other.Domain == l.Domain && other.Key == l.Key && other.ID != l.ID {
			return repository.ErrDuplicateKey
		}
	}
	r.db.links[l.ID] = *l
	return nil
}

func (r *fakeLinkRepo) ByID(_ context.Context, id string) (*models.Link, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.links[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (r *fakeLinkRepo) ByDomainAndKey(_ context.Context, domain, key string) (*models.Link, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.links {
		if l.Domain == domain && l.Key == key {
			return &l, nil
		}
	}
	return nil, nil
}

func (r *fakeLinkRepo) AssignPartner(_ context.Context, linkID, partnerID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	l, ok := r.db.links[linkID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	l.PartnerID = utils.ToPtr(partnerID)
	r.db.links[linkID] = l
	return nil
}

type fakeOnboardingRepo struct {
	unusedRepo[models.ProgramOnboarding, models.ProgramOnboardingFilter]
	db *memDB
}

func (r *fakeOnboardingRepo) Save(_ context.Context, o *models.ProgramOnboarding) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if existing, ok := r.db.onboardings[o.WorkspaceID]; ok && existing.ID != o.ID {
		return repository.ErrDuplicateKey
	}
	if o.ID == 0 {
		r.db.nextID++
		o.ID = r.db.nextID
	}
	o.UpdatedAt = utils.UTCNow()
	r.db.onboardings[o.WorkspaceID] = *o
	return nil
}

func (r *fakeOnboardingRepo) ByWorkspace(_ context.Context, workspaceID uint) (*models.ProgramOnboarding, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	o, ok := r.db.onboardings[workspaceID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *fakeOnboardingRepo) UpdatePayload(_ context.Context, id uint, payload *models.ProgramOnboardingData) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for ws, o := range r.db.onboardings {
		if o.ID == id && o.Status == models.OnboardingStatusPending {
			o.Payload = payload
			o.UpdatedAt = utils.UTCNow()
			r.db.onboardings[ws] = o
			return nil
		}
	}
	return repository.ErrOnboardingNotPending
}

func (r *fakeOnboardingRepo) MarkConsumed(_ context.Context, workspaceID uint) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if err := r.db.failure("onboarding.consume"); err != nil {
		return err
	}
	o, ok := r.db.onboardings[workspaceID]
	if !ok || o.Status != models.OnboardingStatusPending {
		return repository.ErrOnboardingNotPending
	}
	o.Payload = nil
	o.Status = models.OnboardingStatusConsumed
	o.ConsumedAt = utils.UTCNowPtr()
	r.db.onboardings[workspaceID] = o
	return nil
}

type fakeAuditRepo struct {
	unusedRepo[models.AuditLog, models.AuditLogFilter]
	db *memDB
}

func (r *fakeAuditRepo) Save(_ context.Context, a *models.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.audits = append(r.db.audits, *a)
	return nil
}

func (r *fakeAuditRepo) ListByWorkspace(_ context.Context, workspaceID uint, _, _ int) ([]*models.AuditLog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.AuditLog
	for i := range r.db.audits {
		if a := r.db.audits[i]; a.WorkspaceID != nil && *a.WorkspaceID == workspaceID {
			out = append(out, &a)
		}
	}
	return out, nil
}

// fakeNotifier records sent emails
type fakeNotifier struct {
	mu   sync.Mutex
	sent []services.EmailMessage
	err  error
}

func (n *fakeNotifier) SendEmail(_ context.Context, msg services.EmailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) recipients() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, m := range n.sent {
		out = append(out, m.To)
	}
	sort.Strings(out)
	return out
}

// fakeImporter keeps importer credentials and queued jobs in memory
type fakeImporter struct {
	mu    sync.Mutex
	creds map[uint]services.ImporterCredentials
	jobs  []services.ImportJob
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{creds: map[uint]services.ImporterCredentials{}}
}

func (i *fakeImporter) GetCredentials(_ context.Context, workspaceID uint) (*services.ImporterCredentials, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	c, ok := i.creds[workspaceID]
	if !ok {
		return nil, services.ErrImporterCredentialsNotFound
	}
	return &c, nil
}

func (i *fakeImporter) SetCredentials(_ context.Context, workspaceID uint, creds *services.ImporterCredentials) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.creds[workspaceID] = *creds
	return nil
}

func (i *fakeImporter) Queue(_ context.Context, job services.ImportJob) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.jobs = append(i.jobs, job)
	return nil
}

// fakeProgramCache is a map backed program cache
type fakeProgramCache struct {
	mu      sync.Mutex
	entries map[string]models.Program
}

func newFakeProgramCache() *fakeProgramCache {
	return &fakeProgramCache{entries: map[string]models.Program{}}
}

func (c *fakeProgramCache) Get(_ context.Context, id string) (*models.Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *fakeProgramCache) Set(_ context.Context, p *models.Program) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[p.ID] = *p
	return nil
}

func (c *fakeProgramCache) Invalidate(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	return nil
}

func (c *fakeProgramCache) has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}
