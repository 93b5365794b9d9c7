package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Triage/internal/domain"
	"github.com/shaiso/Triage/internal/repo"
)

// --- In-memory хранилища для тестов ---

type memStore struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*domain.User
	profiles map[int64]*domain.Profile
	tasks    map[int64]*domain.Task
	spaces   map[int64]*domain.Workspace
	members  map[[2]int64]time.Time // {workspaceID, userID}
	works    map[int64]*domain.Work
	jobs     map[uuid.UUID]*domain.Job

	// staleReads: сколько ближайших FindActive вернут ErrNotFound,
	// как если бы параллельная вставка ещё не была видна.
	staleReads int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[int64]*domain.User{},
		profiles: map[int64]*domain.Profile{},
		tasks:    map[int64]*domain.Task{},
		spaces:   map[int64]*domain.Workspace{},
		members:  map[[2]int64]time.Time{},
		works:    map[int64]*domain.Work{},
		jobs:     map[uuid.UUID]*domain.Job{},
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func paginate[T any](items []T, page repo.Page) []T {
	if page.Limit <= 0 {
		page.Limit = repo.MaxPageSize
	}
	if page.Offset >= len(items) {
		return []T{}
	}
	end := min(page.Offset+page.Limit, len(items))
	return items[page.Offset:end]
}

// userStore

type memUsers struct{ *memStore }

func (s memUsers) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return repo.ErrAlreadyExists
		}
	}
	u.ID = s.id()
	u.CreatedAt = time.Now()
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s memUsers) List(_ context.Context, page repo.Page) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.User
	for id := int64(1); id <= s.nextID; id++ {
		if u, ok := s.users[id]; ok {
			all = append(all, *u)
		}
	}
	return paginate(all, page), nil
}

func (s memUsers) ListByWorkspace(_ context.Context, workspaceID int64) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.User
	for id := int64(1); id <= s.nextID; id++ {
		if _, ok := s.members[[2]int64{workspaceID, id}]; ok {
			result = append(result, *s.users[id])
		}
	}
	return result, nil
}

func (s memUsers) Update(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return repo.ErrNotFound
	}
	for id, existing := range s.users {
		if id != u.ID && (existing.Username == u.Username || existing.Email == u.Email) {
			return repo.ErrAlreadyExists
		}
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s memUsers) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.users, id)
	delete(s.profiles, id)
	return nil
}

func (s memUsers) GetProfile(_ context.Context, userID int64) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s memUsers) UpsertProfile(_ context.Context, userID int64, bio string) (*domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, repo.ErrNotFound
	}
	p, ok := s.profiles[userID]
	if !ok {
		p = &domain.Profile{ID: s.id(), UserID: userID}
		s.profiles[userID] = p
	}
	p.Bio = bio
	p.UpdatedAt = time.Now()
	cp := *p
	return &cp, nil
}

// taskStore

type memTasks struct{ *memStore }

func (s memTasks) Create(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.UserID != nil {
		if _, ok := s.users[*t.UserID]; !ok {
			return repo.ErrInvalidReference
		}
	}
	t.ID = s.id()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s memTasks) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s memTasks) List(_ context.Context, filter repo.TaskFilter) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Task
	for id := int64(1); id <= s.nextID; id++ {
		t, ok := s.tasks[id]
		if !ok {
			continue
		}
		if filter.UserID != nil && (t.UserID == nil || *t.UserID != *filter.UserID) {
			continue
		}
		all = append(all, *t)
	}
	return paginate(all, filter.Page), nil
}

func (s memTasks) Update(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; !ok {
		return repo.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s memTasks) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// workspaceStore

type memWorkspaces struct{ *memStore }

func (s memWorkspaces) Create(_ context.Context, ws *domain.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.spaces {
		if existing.Name == ws.Name {
			return repo.ErrAlreadyExists
		}
	}
	ws.ID = s.id()
	ws.CreatedAt = time.Now()
	cp := *ws
	s.spaces[ws.ID] = &cp
	return nil
}

func (s memWorkspaces) GetByID(_ context.Context, id int64) (*domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.spaces[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *ws
	return &cp, nil
}

func (s memWorkspaces) List(_ context.Context, page repo.Page) ([]domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Workspace
	for id := int64(1); id <= s.nextID; id++ {
		if ws, ok := s.spaces[id]; ok {
			all = append(all, *ws)
		}
	}
	return paginate(all, page), nil
}

func (s memWorkspaces) ListByUser(_ context.Context, userID int64) ([]domain.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Workspace
	for id := int64(1); id <= s.nextID; id++ {
		if _, ok := s.members[[2]int64{id, userID}]; ok {
			result = append(result, *s.spaces[id])
		}
	}
	return result, nil
}

func (s memWorkspaces) Update(_ context.Context, ws *domain.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[ws.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *ws
	s.spaces[ws.ID] = &cp
	return nil
}

func (s memWorkspaces) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.spaces[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.spaces, id)
	return nil
}

func (s memWorkspaces) AddMember(_ context.Context, workspaceID, userID int64) (*domain.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, repo.ErrInvalidReference
	}
	key := [2]int64{workspaceID, userID}
	if _, ok := s.members[key]; ok {
		return nil, repo.ErrAlreadyExists
	}
	s.members[key] = time.Now()
	return &domain.Membership{WorkspaceID: workspaceID, UserID: userID, JoinedAt: s.members[key]}, nil
}

func (s memWorkspaces) RemoveMember(_ context.Context, workspaceID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]int64{workspaceID, userID}
	if _, ok := s.members[key]; !ok {
		return repo.ErrNotFound
	}
	delete(s.members, key)
	return nil
}

// workStore

type memWorks struct{ *memStore }

func (s memWorks) Create(_ context.Context, w *domain.Work) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.ID = s.id()
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	cp := *w
	s.works[w.ID] = &cp
	return nil
}

func (s memWorks) GetByID(_ context.Context, id int64) (*domain.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.works[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (s memWorks) List(_ context.Context, page repo.Page) ([]domain.Work, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Work
	for id := int64(1); id <= s.nextID; id++ {
		if w, ok := s.works[id]; ok {
			all = append(all, *w)
		}
	}
	return paginate(all, page), nil
}

func (s memWorks) Update(_ context.Context, w *domain.Work) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.works[w.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *w
	s.works[w.ID] = &cp
	return nil
}

func (s memWorks) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.works[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.works, id)
	return nil
}

// jobStore

type memJobs struct{ *memStore }

func (s memJobs) Create(_ context.Context, j *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Как уникальный частичный индекс triage_jobs_active_uniq
	if !j.IsFinished() {
		for _, other := range s.jobs {
			if other.Repo == j.Repo && other.IssueNumber == j.IssueNumber && !other.IsFinished() {
				return repo.ErrAlreadyExists
			}
		}
	}
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

func (s memJobs) GetByID(_ context.Context, id uuid.UUID) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (s memJobs) FindActive(_ context.Context, fullRepo string, issueNumber int) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.staleReads > 0 {
		s.staleReads--
		return nil, repo.ErrNotFound
	}
	for _, j := range s.jobs {
		if j.Repo == fullRepo && j.IssueNumber == issueNumber && !j.IsFinished() {
			cp := *j
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s memJobs) List(_ context.Context, filter repo.JobFilter) ([]domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Job
	for _, j := range s.jobs {
		if filter.Repo != "" && j.Repo != filter.Repo {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		result = append(result, *j)
	}
	return result, nil
}

func (s memJobs) Update(_ context.Context, j *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}

// publisher

type fakePublisher struct {
	mu   sync.Mutex
	ids  []uuid.UUID
	fail error
}

func (p *fakePublisher) PublishJobPending(_ context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.ids = append(p.ids, id)
	return nil
}

func (p *fakePublisher) published() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uuid.UUID(nil), p.ids...)
}
