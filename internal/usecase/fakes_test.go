package usecase

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lostfound/internal/domain/entity"
	"lostfound/internal/domain/repository"
	"lostfound/internal/domain/service"
	"lostfound/pkg/errors"
)

type watcher struct {
	stage   entity.Stage
	fn      repository.SnapshotFunc
	onError func(error)
}

// memoryReports mimics the Firestore repository: per-stage documents,
// NotFound on deleting a missing document, and synchronous change
// notification to watchers.
type memoryReports struct {
	mu       sync.Mutex
	docs     map[entity.Stage]map[string]*entity.Report
	seq      int
	watchers map[int]*watcher
	nextW    int

	createErr map[entity.Stage]error
	deleteErr map[entity.Stage]error
	watchErr  error

	calls int
}

func newMemoryReports() *memoryReports {
	return &memoryReports{
		docs:      map[entity.Stage]map[string]*entity.Report{},
		watchers:  map[int]*watcher{},
		createErr: map[entity.Stage]error{},
		deleteErr: map[entity.Stage]error{},
	}
}

func (m *memoryReports) seed(stage entity.Stage, r *entity.Report) *entity.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = fmt.Sprintf("%s-%d", stage.Status(), m.seq)
	r.Stage = stage
	m.stage(stage)[r.ID] = r.Clone()
	return r
}

func (m *memoryReports) stage(s entity.Stage) map[string]*entity.Report {
	if m.docs[s] == nil {
		m.docs[s] = map[string]*entity.Report{}
	}
	return m.docs[s]
}

func (m *memoryReports) Create(ctx context.Context, stage entity.Stage, report *entity.Report) (string, error) {
	m.mu.Lock()
	m.calls++
	if err := m.createErr[stage]; err != nil {
		m.mu.Unlock()
		return "", errors.FromStore("Report", "create", err)
	}
	m.seq++
	id := fmt.Sprintf("%s-%d", stage.Status(), m.seq)
	stored := report.Clone()
	stored.ID = id
	stored.Stage = stage
	stored.Status = stage.Status()
	m.stage(stage)[id] = stored
	m.mu.Unlock()

	m.broadcast(stage)
	return id, nil
}

func (m *memoryReports) Get(ctx context.Context, stage entity.Stage, id string) (*entity.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	r, ok := m.stage(stage)[id]
	if !ok {
		return nil, errors.NotFound("Report", status.Error(codes.NotFound, "document not found"))
	}
	return r.Clone(), nil
}

func (m *memoryReports) List(ctx context.Context, stage entity.Stage) ([]*entity.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.snapshot(stage), nil
}

func (m *memoryReports) Delete(ctx context.Context, stage entity.Stage, id string) error {
	m.mu.Lock()
	m.calls++
	if err := m.deleteErr[stage]; err != nil {
		m.mu.Unlock()
		return errors.FromStore("Report", "delete", err)
	}
	if _, ok := m.stage(stage)[id]; !ok {
		m.mu.Unlock()
		return errors.FromStore("Report", "delete", status.Error(codes.NotFound, "no entity to delete"))
	}
	delete(m.stage(stage), id)
	m.mu.Unlock()

	m.broadcast(stage)
	return nil
}

func (m *memoryReports) Watch(ctx context.Context, stage entity.Stage, onSnapshot repository.SnapshotFunc, onError func(error)) error {
	m.mu.Lock()
	m.calls++
	if m.watchErr != nil {
		m.mu.Unlock()
		return errors.FromStore("Report", "watch", m.watchErr)
	}
	initial := m.snapshot(stage)
	m.nextW++
	id := m.nextW
	m.watchers[id] = &watcher{stage: stage, fn: onSnapshot, onError: onError}
	m.mu.Unlock()

	onSnapshot(initial)

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	}()
	return nil
}

// deliverTo pushes the current snapshot to every watcher of stage, ignoring
// whether their context has ended. It lets tests check the engine's own
// teardown guard.
func (m *memoryReports) deliverTo(stage entity.Stage, fns []repository.SnapshotFunc) {
	m.mu.Lock()
	snap := m.snapshot(stage)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (m *memoryReports) watcherFuncs(stage entity.Stage) []repository.SnapshotFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	var fns []repository.SnapshotFunc
	for _, w := range m.watchers {
		if w.stage == stage {
			fns = append(fns, w.fn)
		}
	}
	return fns
}

// failRead reports err to every watcher of stage in place of a snapshot.
func (m *memoryReports) failRead(stage entity.Stage, err error) {
	m.mu.Lock()
	var fns []func(error)
	for _, w := range m.watchers {
		if w.stage == stage {
			fns = append(fns, w.onError)
		}
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(errors.FromStore("Report", "watch", err))
	}
}

func (m *memoryReports) broadcast(stage entity.Stage) {
	m.deliverTo(stage, m.watcherFuncs(stage))
}

func (m *memoryReports) snapshot(stage entity.Stage) []*entity.Report {
	out := []*entity.Report{}
	for _, r := range m.stage(stage) {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memoryReports) has(stage entity.Stage, id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.stage(stage)[id]
	return ok
}

func (m *memoryReports) find(stage entity.Stage, id string) *entity.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.stage(stage)[id]; ok {
		return r.Clone()
	}
	return nil
}

func (m *memoryReports) count(stage entity.Stage) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stage(stage))
}

func (m *memoryReports) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type fakeUploader struct {
	url      string
	err      error
	calls    int
	received []byte
	lastType string
}

func (f *fakeUploader) Upload(ctx context.Context, photo *service.Photo) (*service.UploadedImage, error) {
	f.calls++
	f.lastType = photo.ContentType
	f.received, _ = io.ReadAll(photo.Content)
	if f.err != nil {
		return nil, f.err
	}
	return &service.UploadedImage{URL: f.url, PublicID: "lost_items/test"}, nil
}

type observedOp struct {
	op string
	ok bool
}

type fakeMetrics struct {
	mu     sync.Mutex
	ops    []observedOp
	active int
}

func (f *fakeMetrics) ObserveLifecycle(operation string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, observedOp{op: operation, ok: err == nil})
}

func (f *fakeMetrics) SubscriptionOpened() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active++
}

func (f *fakeMetrics) SubscriptionClosed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
}

type fakeUsers struct {
	users     map[string]*entity.User
	createErr error
	getErr    error
	queryErr  error
}

func newFakeUsers(users ...*entity.User) *fakeUsers {
	f := &fakeUsers{users: map[string]*entity.User{}}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) Create(ctx context.Context, user *entity.User) error {
	if f.createErr != nil {
		return errors.FromStore("User", "create", f.createErr)
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if f.getErr != nil {
		return nil, errors.FromStore("User", "get", f.getErr)
	}
	u, ok := f.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	if f.queryErr != nil {
		return nil, errors.FromStore("User", "query", f.queryErr)
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.NotFound("User", nil)
}

func (f *fakeUsers) SetRole(ctx context.Context, id, role string) error {
	u, ok := f.users[id]
	if !ok {
		u = &entity.User{ID: id}
		f.users[id] = u
	}
	u.Role = role
	return nil
}

type fakeIdentity struct {
	accounts  map[string]fakeAccount // by email
	tokens    map[string]string      // id token -> uid
	createErr error
	signInErr error
	revoked   []string
	nextUID   int
}

type fakeAccount struct {
	uid      string
	password string
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{accounts: map[string]fakeAccount{}, tokens: map[string]string{}}
}

func (f *fakeIdentity) add(uid, email, password string) {
	f.accounts[email] = fakeAccount{uid: uid, password: password}
}

func (f *fakeIdentity) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	if _, ok := f.accounts[email]; ok {
		return "", errors.EmailInUse(nil)
	}
	f.nextUID++
	uid := fmt.Sprintf("uid-%d", f.nextUID)
	f.add(uid, email, password)
	return uid, nil
}

func (f *fakeIdentity) SignInWithPassword(ctx context.Context, email, password string) (*service.SignInResult, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	acc, ok := f.accounts[email]
	if !ok || acc.password != password {
		return nil, errors.InvalidCredentials(nil)
	}
	token := "token-" + acc.uid
	f.tokens[token] = acc.uid
	return &service.SignInResult{UID: acc.uid, Email: email, IDToken: token, RefreshToken: "refresh-" + acc.uid}, nil
}

func (f *fakeIdentity) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	uid, ok := f.tokens[idToken]
	if !ok {
		return "", errors.Unauthorized("Invalid or expired token", nil)
	}
	return uid, nil
}

func (f *fakeIdentity) RevokeSessions(ctx context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	for token, u := range f.tokens {
		if u == uid {
			delete(f.tokens, token)
		}
	}
	return nil
}
