package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/talentline/apiserver/internal/auth"
	"github.com/talentline/apiserver/internal/store"
	"github.com/talentline/apiserver/types"
)

// fakeUserStore is an in-memory UserStore enforcing the same uniqueness
// rules as the users table.
type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]types.User

	// failWith, when set, is returned by every call.
	failWith error
	// insertConflicts makes the next N inserts fail with ErrConflict
	// after running onConflict.
	insertConflicts int
	onConflict      func(*fakeUserStore)
	inserts         int
	saves           int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]types.User{}}
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserStore) FindByExternalIDOrEmail(_ context.Context, externalID, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	for _, u := range f.users {
		if externalID != "" && u.FirebaseUID == externalID {
			return u, nil
		}
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserStore) Insert(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return types.User{}, f.failWith
	}
	if f.insertConflicts > 0 {
		f.insertConflicts--
		if f.onConflict != nil {
			f.onConflict(f)
		}
		return types.User{}, store.ErrConflict
	}
	if err := f.checkUnique(user); err != nil {
		return types.User{}, err
	}
	f.inserts++
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserStore) Save(_ context.Context, user types.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	if err := f.checkUnique(user); err != nil {
		return err
	}
	f.saves++
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) checkUnique(user types.User) error {
	for id, u := range f.users {
		if id == user.ID {
			continue
		}
		if u.Email == user.Email || (user.FirebaseUID != "" && u.FirebaseUID == user.FirebaseUID) {
			return store.ErrConflict
		}
	}
	return nil
}

func (f *fakeUserStore) put(u types.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *fakeUserStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (fakeHasher) Verify(plaintext, hash string) bool {
	return hash != "" && hash == "hashed:"+plaintext
}

type fakeIssuer struct {
	failIssue bool
}

func (f fakeIssuer) Issue(subject string) (string, error) {
	if f.failIssue {
		return "", errors.New("signing key unavailable")
	}
	return "tok:" + subject, nil
}

func (fakeIssuer) Resolve(token string) (string, error) {
	subject, ok := strings.CutPrefix(token, "tok:")
	if !ok || subject == "" {
		return "", auth.ErrInvalidToken
	}
	return subject, nil
}

// fakeVerifier decodes tokens by looking them up in a map.
type fakeVerifier struct {
	disabled bool
	tokens   map[string]*types.ExternalClaims
	err      error
}

func (f *fakeVerifier) IsAvailable() bool { return !f.disabled }

func (f *fakeVerifier) Decode(_ context.Context, token string) (*types.ExternalClaims, error) {
	if f.err != nil {
		return nil, f.err
	}
	claims, ok := f.tokens[token]
	if !ok {
		return nil, auth.ErrTokenRejected
	}
	if claims == nil {
		return nil, nil
	}
	c := *claims
	return &c, nil
}

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return prefix + "-" + strconv.Itoa(n)
	}
}

type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[string]types.Job
}

func newFakeJobStore(jobs ...types.Job) *fakeJobStore {
	f := &fakeJobStore{jobs: map[string]types.Job{}}
	for _, j := range jobs {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobStore) List(_ context.Context, filter types.JobFilter, offset, limit int) ([]types.Job, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.Job
	for _, j := range f.jobs {
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		if filter.EmployerID != "" && j.EmployerID != filter.EmployerID {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	total := len(out)
	if offset > len(out) {
		offset = len(out)
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (f *fakeJobStore) Get(_ context.Context, id string) (types.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return types.Job{}, store.ErrNotFound
	}
	return j, nil
}

func (f *fakeJobStore) Create(_ context.Context, job types.Job) (types.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobStore) Update(_ context.Context, job types.Job) (types.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[job.ID]; !ok {
		return types.Job{}, store.ErrNotFound
	}
	f.jobs[job.ID] = job
	return job, nil
}

func (f *fakeJobStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.jobs[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.jobs, id)
	return nil
}

type fakeApplicationStore struct {
	mu   sync.Mutex
	apps map[string]types.Application
}

func newFakeApplicationStore() *fakeApplicationStore {
	return &fakeApplicationStore{apps: map[string]types.Application{}}
}

func (f *fakeApplicationStore) Create(_ context.Context, app types.Application) (types.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.apps {
		if a.JobID == app.JobID && a.CandidateID == app.CandidateID {
			return types.Application{}, store.ErrConflict
		}
	}
	f.apps[app.ID] = app
	return app, nil
}

func (f *fakeApplicationStore) Get(_ context.Context, id string) (types.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return types.Application{}, store.ErrNotFound
	}
	return a, nil
}

func (f *fakeApplicationStore) ListByCandidate(_ context.Context, candidateID string) ([]types.Application, error) {
	return f.filter(func(a types.Application) bool { return a.CandidateID == candidateID }), nil
}

func (f *fakeApplicationStore) ListByJob(_ context.Context, jobID string) ([]types.Application, error) {
	return f.filter(func(a types.Application) bool { return a.JobID == jobID }), nil
}

func (f *fakeApplicationStore) UpdateStatus(_ context.Context, id string, status types.ApplicationStatus, notes string) (types.Application, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.apps[id]
	if !ok {
		return types.Application{}, store.ErrNotFound
	}
	a.Status = status
	a.AdditionalNotes = notes
	f.apps[id] = a
	return a, nil
}

func (f *fakeApplicationStore) filter(keep func(types.Application) bool) []types.Application {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []types.Application{}
	for _, a := range f.apps {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type publishedEvent struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.events = append(f.events, publishedEvent{channel: channel, data: data, attrs: attrs})
	return "msg-id", nil
}

type fakeFavoriteStore struct {
	mu   sync.Mutex
	favs []types.Favorite
}

func (f *fakeFavoriteStore) Add(_ context.Context, fav types.Favorite) (types.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.favs {
		if existing.UserID == fav.UserID && existing.JobID == fav.JobID {
			return types.Favorite{}, store.ErrConflict
		}
	}
	f.favs = append(f.favs, fav)
	return fav, nil
}

func (f *fakeFavoriteStore) Remove(_ context.Context, userID, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.favs {
		if existing.UserID == userID && existing.JobID == jobID {
			f.favs = append(f.favs[:i], f.favs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeFavoriteStore) ListByUser(_ context.Context, userID string) ([]types.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []types.Favorite{}
	for _, existing := range f.favs {
		if existing.UserID == userID {
			out = append(out, existing)
		}
	}
	return out, nil
}

func (f *fakeFavoriteStore) Exists(_ context.Context, userID, jobID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.favs {
		if existing.UserID == userID && existing.JobID == jobID {
			return true, nil
		}
	}
	return false, nil
}

type fakeResumeStore struct {
	mu      sync.Mutex
	resumes map[string]types.Resume
	listErr error
}

func newFakeResumeStore() *fakeResumeStore {
	return &fakeResumeStore{resumes: map[string]types.Resume{}}
}

func (f *fakeResumeStore) Create(_ context.Context, r types.Resume) (types.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumes[r.ID] = r
	return r, nil
}

func (f *fakeResumeStore) Get(_ context.Context, id string) (types.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resumes[id]
	if !ok {
		return types.Resume{}, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeResumeStore) ListByUser(_ context.Context, userID string) ([]types.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []types.Resume{}
	for _, r := range f.resumes {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeResumeStore) SetPrimary(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.resumes[id]
	if !ok || target.UserID != userID {
		return store.ErrNotFound
	}
	for rid, r := range f.resumes {
		if r.UserID == userID {
			r.IsPrimary = rid == id
			f.resumes[rid] = r
		}
	}
	return nil
}

func (f *fakeResumeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.resumes[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.resumes, id)
	return nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}
