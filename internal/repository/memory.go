package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"task-service/internal/model"
)

// MemoryStore keeps users and tasks in process memory. It backs the "memory"
// store driver and the service tests.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]model.User
	byEmail map[string]uuid.UUID
	tasks   map[uuid.UUID]model.Task
	now     func() time.Time
	last    time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]model.User),
		byEmail: make(map[string]uuid.UUID),
		tasks:   make(map[uuid.UUID]model.Task),
		now:     time.Now,
	}
}

// tick returns a timestamp strictly after the previous one so creation order
// survives a coarse clock. Callers hold mu.
func (s *MemoryStore) tick() time.Time {
	now := s.now()
	if !now.After(s.last) {
		now = s.last.Add(time.Nanosecond)
	}
	s.last = now
	return now
}

func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

func (s *MemoryStore) Tasks() TaskRepository { return memoryTasks{s} }

func (s *MemoryStore) Ping(context.Context) error { return nil }

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.byEmail[user.Email]; exists {
		return nil, ErrDuplicate
	}

	now := r.s.tick()
	user.ID = uuid.New()
	user.CreatedAt = now
	user.UpdatedAt = now

	r.s.users[user.ID] = *user
	r.s.byEmail[user.Email] = user.ID

	return user, nil
}

func (r memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, exists := r.s.byEmail[email]
	if !exists {
		return nil, ErrNotFound
	}
	user := r.s.users[id]
	return &user, nil
}

func (r memoryUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, exists := r.s.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	user.PasswordHash = ""
	return &user, nil
}

func (r memoryUsers) UpdateAvatar(_ context.Context, id uuid.UUID, avatarURL string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, exists := r.s.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	user.AvatarURL = &avatarURL
	user.UpdatedAt = r.s.tick()
	r.s.users[id] = user

	user.PasswordHash = ""
	return &user, nil
}

type memoryTasks struct{ s *MemoryStore }

func (r memoryTasks) Create(_ context.Context, task *model.Task) (*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.tick()
	task.ID = uuid.New()
	task.CreatedAt = now
	task.UpdatedAt = now
	r.s.tasks[task.ID] = *task

	return task, nil
}

func (r memoryTasks) FindByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	task, exists := r.s.tasks[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &task, nil
}

func (r memoryTasks) ListByOwner(_ context.Context, userID uuid.UUID) ([]model.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	tasks := []model.Task{}
	for _, t := range r.s.tasks {
		if t.UserID == userID {
			tasks = append(tasks, t)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})

	return tasks, nil
}

func (r memoryTasks) Update(_ context.Context, task *model.Task) (*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, exists := r.s.tasks[task.ID]
	if !exists || stored.UserID != task.UserID {
		return nil, ErrNotFound
	}

	stored.Title = task.Title
	stored.Description = task.Description
	stored.Completed = task.Completed
	stored.UpdatedAt = r.s.tick()
	r.s.tasks[task.ID] = stored

	return &stored, nil
}

func (r memoryTasks) DeleteOwned(_ context.Context, id, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, exists := r.s.tasks[id]
	if !exists || stored.UserID != userID {
		return 0, nil
	}
	delete(r.s.tasks, id)

	return 1, nil
}
