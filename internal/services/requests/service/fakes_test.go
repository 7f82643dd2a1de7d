package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"wikidomains/internal/modkit/repokit"
	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/store"
	"wikidomains/internal/services/requests/domain"
	"wikidomains/internal/services/requests/repo"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// memRepo is an in-memory repo.Repo; fakeTx snapshots it so a failed transaction leaves no trace
type memRepo struct {
	mu       sync.Mutex
	reqs     map[int64]domain.Request
	comments []domain.Comment
	nextID   int64
	tick     int
	failOn   map[string]error
}

func newMemRepo() *memRepo {
	return &memRepo{reqs: map[int64]domain.Request{}, failOn: map[string]error{}}
}

func (m *memRepo) clock() time.Time {
	m.tick++
	return t0.Add(time.Duration(m.tick) * time.Second)
}

func (m *memRepo) fail(op string) error { return m.failOn[op] }

type memSnapshot struct {
	reqs     map[int64]domain.Request
	comments []domain.Comment
	nextID   int64
}

func (m *memRepo) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make(map[int64]domain.Request, len(m.reqs))
	for k, v := range m.reqs {
		reqs[k] = v
	}
	return memSnapshot{reqs: reqs, comments: append([]domain.Comment(nil), m.comments...), nextID: m.nextID}
}

func (m *memRepo) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs, m.comments, m.nextID = s.reqs, s.comments, s.nextID
}

func (m *memRepo) Create(_ context.Context, in domain.NewRequest) (domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("create"); err != nil {
		return domain.Request{}, err
	}
	for _, r := range m.reqs {
		if r.Kind == in.Kind && r.Target == in.Target && r.Status == domain.StatusPending {
			return domain.Request{}, perr.DuplicateKeyf("a pending request already exists for %s", in.Target)
		}
	}
	m.nextID++
	now := m.clock()
	r := domain.Request{
		ID:           m.nextID,
		Kind:         in.Kind,
		CustomDomain: in.CustomDomain,
		Target:       in.Target,
		Reason:       in.Reason,
		Status:       domain.StatusPending,
		Requester:    in.Requester,
		Private:      in.Private,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.reqs[r.ID] = r
	return r, nil
}

func (m *memRepo) Load(_ context.Context, id int64) (domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("load"); err != nil {
		return domain.Request{}, err
	}
	r, ok := m.reqs[id]
	if !ok {
		return domain.Request{}, perr.NotFoundf("request %d not found", id)
	}
	return r, nil
}

func (m *memRepo) LoadForUpdate(ctx context.Context, id int64) (domain.Request, error) {
	return m.Load(ctx, id)
}

func (m *memRepo) HasPending(_ context.Context, kind domain.Kind, target string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reqs {
		if r.Kind == kind && r.Target == target && r.Status == domain.StatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Update(_ context.Context, id int64, c domain.Changes) (domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("update"); err != nil {
		return domain.Request{}, err
	}
	r, ok := m.reqs[id]
	if !ok {
		return domain.Request{}, perr.NotFoundf("request %d not found", id)
	}
	c.Apply(&r)
	r.UpdatedAt = m.clock()
	m.reqs[id] = r
	return r, nil
}

func (m *memRepo) List(_ context.Context, f domain.Filter) ([]domain.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Request
	for _, r := range m.reqs {
		switch {
		case f.Kind != "" && r.Kind != f.Kind:
		case f.Status != "" && r.Status != f.Status:
		case f.Target != "" && r.Target != f.Target:
		case f.RequesterID != 0 && r.Requester.ID != f.RequesterID:
		case r.Private && !f.IncludePrivate && (f.ViewerID == 0 || r.Requester.ID != f.ViewerID):
		default:
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Offset >= len(out) {
		return nil, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memRepo) IDsByStatus(_ context.Context, kind domain.Kind, status domain.Status, limit int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []int64
	for id, r := range m.reqs {
		if r.Kind == kind && r.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memRepo) AppendComment(_ context.Context, requestID int64, author domain.Actor, text string) (domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("comment"); err != nil {
		return domain.Comment{}, err
	}
	if _, ok := m.reqs[requestID]; !ok {
		return domain.Comment{}, perr.NotFoundf("request %d not found", requestID)
	}
	c := domain.Comment{
		ID:        int64(len(m.comments) + 1),
		RequestID: requestID,
		Author:    author,
		Text:      text,
		CreatedAt: m.clock(),
	}
	m.comments = append(m.comments, c)
	return c, nil
}

func (m *memRepo) ListComments(_ context.Context, requestID int64) ([]domain.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Comment
	for i := len(m.comments) - 1; i >= 0; i-- {
		if m.comments[i].RequestID == requestID {
			out = append(out, m.comments[i])
		}
	}
	return out, nil
}

func (m *memRepo) CommentAuthors(_ context.Context, requestID int64) ([]domain.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[int64]bool{}
	var out []domain.Actor
	for _, c := range m.comments {
		if c.RequestID != requestID || c.Author.IsSystem() || c.Author.ID == 0 || seen[c.Author.ID] {
			continue
		}
		seen[c.Author.ID] = true
		out = append(out, c.Author)
	}
	return out, nil
}

// fakeTx runs fn against memRepo and rolls the memory back when fn fails
type fakeTx struct {
	mem   *memRepo
	calls int
}

func (f *fakeTx) Tx(_ context.Context, fn func(q store.RowQuerier) error) error {
	f.calls++
	snap := f.mem.snapshot()
	if err := fn(f); err != nil {
		f.mem.restore(snap)
		return err
	}
	return nil
}

func (f *fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (f *fakeTx) Query(context.Context, string, ...any) (store.Rows, error)      { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...any) store.Row             { return nil }

type fakeSites struct {
	mu      sync.Mutex
	known   map[string]bool
	servers map[string]string
	setErr  error
}

func (s *fakeSites) Exists(_ context.Context, dbname string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.known[dbname], nil
}

func (s *fakeSites) SetServerName(_ context.Context, dbname, serverName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.servers[dbname] = serverName
	return nil
}

func (s *fakeSites) server(dbname string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.servers[dbname]
}

type fakeUsers struct {
	users       map[int64]domain.Actor
	rights      map[int64][]string
	bureaucrats map[int64][]string
	blocked     map[int64]bool
}

func (u *fakeUsers) ByID(_ context.Context, id int64) (domain.Actor, bool, error) {
	a, ok := u.users[id]
	return a, ok, nil
}

func (u *fakeUsers) ByName(_ context.Context, name string) (domain.Actor, bool, error) {
	for _, a := range u.users {
		if strings.EqualFold(a.Name, name) {
			return a, true, nil
		}
	}
	return domain.Actor{}, false, nil
}

func (u *fakeUsers) HasRight(_ context.Context, id int64, right string) (bool, error) {
	for _, r := range u.rights[id] {
		if r == right {
			return true, nil
		}
	}
	return false, nil
}

func (u *fakeUsers) IsBureaucrat(_ context.Context, id int64, site string) (bool, error) {
	for _, s := range u.bureaucrats[id] {
		if s == site {
			return true, nil
		}
	}
	return false, nil
}

func (u *fakeUsers) Blocked(_ context.Context, id int64) (bool, error) { return u.blocked[id], nil }

type fakeAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *fakeAudit) Record(_ context.Context, e domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

func (a *fakeAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.LogType+"/"+e.Action)
	}
	return out
}

type fakeSink struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (s *fakeSink) Send(_ context.Context, n domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

func (s *fakeSink) recipients(event string) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, n := range s.sent {
		if n.Event == event {
			ids = append(ids, n.Recipient.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type enqueued struct {
	kind domain.Kind
	job  domain.JobType
	id   int64
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []enqueued
}

func (q *fakeQueue) Enqueue(_ context.Context, kind domain.Kind, jt domain.JobType, id int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, enqueued{kind, jt, id})
	return nil
}

func (q *fakeQueue) count(jt domain.JobType) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, j := range q.jobs {
		if j.job == jt {
			n++
		}
	}
	return n
}

// fixture users
var (
	alice = domain.UserActor(1, "Alice") // requester
	bob   = domain.UserActor(2, "Bob")   // handler
	carol = domain.UserActor(3, "Carol") // unrelated user
	dave  = domain.UserActor(4, "Dave")  // handler with view-private
)

type harness struct {
	svc   *Svc
	mem   *memRepo
	tx    *fakeTx
	sites *fakeSites
	users *fakeUsers
	audit *fakeAudit
	sink  *fakeSink
	queue *fakeQueue
}

func newHarness(t *testing.T, mut ...func(*Options)) *harness {
	t.Helper()
	mem := newMemRepo()
	h := &harness{
		mem: mem,
		tx:  &fakeTx{mem: mem},
		sites: &fakeSites{
			known:   map[string]bool{"examplewiki": true, "testwiki": true},
			servers: map[string]string{},
		},
		users: &fakeUsers{
			users: map[int64]domain.Actor{1: alice, 2: bob, 3: carol, 4: dave},
			rights: map[int64][]string{
				2: {"handle-ssl-requests", "handle-custom-domain-requests"},
				4: {"handle-ssl-requests", "view-private-ssl-requests"},
			},
			bureaucrats: map[int64][]string{1: {"examplewiki"}},
			blocked:     map[int64]bool{},
		},
		audit: &fakeAudit{},
		sink:  &fakeSink{},
		queue: &fakeQueue{},
	}
	opt := Options{
		Sites:          h.sites,
		Users:          h.users,
		Audit:          h.audit,
		Sink:           h.sink,
		Enqueuer:       h.queue,
		Now:            func() time.Time { return t0 },
		DatabaseSuffix: "wiki",
		RequireReason:  true,
		SyncNotify:     true,
	}
	for _, f := range mut {
		f(&opt)
	}
	binder := repokit.BindFunc[repo.Repo](func(repokit.Queryer) repo.Repo { return mem })
	h.svc = New(h.tx, binder, opt)
	return h
}

func (h *harness) submit(t *testing.T, kind domain.Kind, target string) domain.Request {
	t.Helper()
	res, err := h.svc.Submit(context.Background(), kind, alice, domain.SubmitInput{
		CustomDomain: "https://example.org",
		Target:       target,
		Reason:       "we own it",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res.Request
}

func (h *harness) setStatus(t *testing.T, id int64, st domain.Status) {
	t.Helper()
	h.mem.mu.Lock()
	defer h.mem.mu.Unlock()
	r := h.mem.reqs[id]
	r.Status = st
	h.mem.reqs[id] = r
}

func (h *harness) comments(t *testing.T, id int64) []domain.Comment {
	t.Helper()
	cs, err := h.mem.ListComments(context.Background(), id)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	return cs
}

func wantCode(t *testing.T, err error, code perr.ErrorCode) {
	t.Helper()
	if !perr.IsCode(err, code) {
		t.Fatalf("want %v, got %v", code, err)
	}
}
