package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"task-service/internal/events"
	"task-service/internal/model"
	"task-service/internal/repository"
	"task-service/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
}

func (p *recordingPublisher) record(subject string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) PublishTaskCreated(*model.Task) error {
	return p.record(events.SubjectTaskCreated)
}

func (p *recordingPublisher) PublishTaskUpdated(*model.Task) error {
	return p.record(events.SubjectTaskUpdated)
}

func (p *recordingPublisher) PublishTaskDeleted(uuid.UUID, uuid.UUID) error {
	return p.record(events.SubjectTaskDeleted)
}

func (p *recordingPublisher) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

func newTaskService(t *testing.T) (service.TaskService, repository.TaskRepository) {
	t.Helper()
	store := repository.NewMemoryStore()
	return service.NewTaskService(store.Tasks(), events.NoopPublisher{}), store.Tasks()
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestTaskService_CreateThenList(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())

	created, err := svc.Create(ctx, alice, "  Buy milk  ", "  2 liters ")
	require.NoError(t, err)
	require.Equal(t, "Buy milk", created.Title)
	require.Equal(t, "2 liters", created.Description)
	require.False(t, created.Completed)
	require.Equal(t, alice.UserID, created.UserID)

	tasks, err := svc.List(ctx, alice)
	require.NoError(t, err)

	matches := 0
	for _, task := range tasks {
		if task.Title == "Buy milk" && task.Description == "2 liters" {
			matches++
			require.False(t, task.Completed)
		}
	}
	require.Equal(t, 1, matches)
}

func TestTaskService_ListNewestFirst(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())

	for i := 1; i <= 3; i++ {
		_, err := svc.Create(ctx, alice, fmt.Sprintf("task %d", i), "")
		require.NoError(t, err)
	}

	tasks, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	require.Equal(t, "task 3", tasks[0].Title)
	require.Equal(t, "task 1", tasks[2].Title)
}

func TestTaskService_CreateRejectsBlankTitle(t *testing.T) {
	svc, _ := newTaskService(t)
	alice := model.Authenticated(uuid.New())

	for _, title := range []string{"", "   ", "\t\n"} {
		_, err := svc.Create(context.Background(), alice, title, "desc")
		require.ErrorIs(t, err, service.ErrValidation)
	}
}

func TestTaskService_AnonymousIsUnauthorized(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, model.Anonymous)
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = svc.Create(ctx, model.Anonymous, "title", "")
	require.ErrorIs(t, err, service.ErrUnauthorized)

	_, err = svc.Update(ctx, model.Anonymous, uuid.New(), model.TaskPatch{Completed: boolPtr(true)})
	require.ErrorIs(t, err, service.ErrUnauthorized)

	err = svc.Delete(ctx, model.Anonymous, uuid.New())
	require.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestTaskService_OtherUserIsForbiddenAndTaskUnchanged(t *testing.T) {
	svc, repo := newTaskService(t)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())
	bob := model.Authenticated(uuid.New())

	task, err := svc.Create(ctx, alice, "Alice's task", "private")
	require.NoError(t, err)

	_, err = svc.Update(ctx, bob, task.ID, model.TaskPatch{Title: strPtr("hijacked"), Completed: boolPtr(true)})
	require.ErrorIs(t, err, service.ErrForbidden)

	err = svc.Delete(ctx, bob, task.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	stored, err := repo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice's task", stored.Title)
	require.Equal(t, "private", stored.Description)
	require.False(t, stored.Completed)
	require.Equal(t, alice.UserID, stored.UserID)
}

func TestTaskService_UnknownTaskIsNotFound(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())

	_, err := svc.Update(ctx, alice, uuid.New(), model.TaskPatch{Completed: boolPtr(true)})
	require.ErrorIs(t, err, service.ErrNotFound)

	err = svc.Delete(ctx, alice, uuid.New())
	require.ErrorIs(t, err, service.ErrNotFound)
}

func TestTaskService_PatchCompletedOnly(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())

	task, err := svc.Create(ctx, alice, "Title", "Description")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, alice, task.ID, model.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	require.True(t, updated.Completed)
	require.Equal(t, "Title", updated.Title)
	require.Equal(t, "Description", updated.Description)

	updated, err = svc.Update(ctx, alice, task.ID, model.TaskPatch{Completed: boolPtr(false)})
	require.NoError(t, err)
	require.False(t, updated.Completed)
}

func TestTaskService_PatchTitleAndDescription(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())

	task, err := svc.Create(ctx, alice, "Title", "Description")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, alice, task.ID, model.TaskPatch{Title: strPtr(" New "), Description: strPtr("")})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Title)
	require.Equal(t, "", updated.Description)
	require.False(t, updated.Completed)

	_, err = svc.Update(ctx, alice, task.ID, model.TaskPatch{Title: strPtr("   ")})
	require.ErrorIs(t, err, service.ErrValidation)
}

func TestTaskService_DeleteTwice(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())

	task, err := svc.Create(ctx, alice, "Title", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, alice, task.ID))

	err = svc.Delete(ctx, alice, task.ID)
	require.ErrorIs(t, err, service.ErrNotFound)
	require.NotErrorIs(t, err, service.ErrDeleteFailed)
}

// stuckDeleteRepo finds tasks but never removes them.
type stuckDeleteRepo struct {
	repository.TaskRepository
}

func (stuckDeleteRepo) DeleteOwned(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return 0, nil
}

func TestTaskService_DeleteRemovingNothingIsServerError(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := service.NewTaskService(stuckDeleteRepo{store.Tasks()}, nil)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())

	task, err := svc.Create(ctx, alice, "Title", "")
	require.NoError(t, err)

	err = svc.Delete(ctx, alice, task.ID)
	require.ErrorIs(t, err, service.ErrDeleteFailed)
	require.NotErrorIs(t, err, service.ErrNotFound)
}

func TestTaskService_ListIsolationUnderConcurrentCreates(t *testing.T) {
	svc, _ := newTaskService(t)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())
	bob := model.Authenticated(uuid.New())

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for _, who := range []model.Identity{alice, bob} {
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(id model.Identity, n int) {
				defer wg.Done()
				_, err := svc.Create(ctx, id, fmt.Sprintf("%s-%d", id.UserID, n), "")
				assert.NoError(t, err)
			}(who, i)
		}
	}

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			tasks, err := svc.List(ctx, alice)
			assert.NoError(t, err)
			for _, task := range tasks {
				assert.Equal(t, alice.UserID, task.UserID)
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone

	for _, who := range []model.Identity{alice, bob} {
		tasks, err := svc.List(ctx, who)
		require.NoError(t, err)
		require.Len(t, tasks, 20)
		for _, task := range tasks {
			require.Equal(t, who.UserID, task.UserID)
		}
	}
}

func TestTaskService_PublishesEvents(t *testing.T) {
	store := repository.NewMemoryStore()
	pub := &recordingPublisher{}
	svc := service.NewTaskService(store.Tasks(), pub)
	ctx := context.Background()
	alice := model.Authenticated(uuid.New())

	task, err := svc.Create(ctx, alice, "Title", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(pub.seen()) == 1 }, time.Second, 10*time.Millisecond)

	_, err = svc.Update(ctx, alice, task.ID, model.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(pub.seen()) == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, svc.Delete(ctx, alice, task.ID))
	require.Eventually(t, func() bool { return len(pub.seen()) == 3 }, time.Second, 10*time.Millisecond)

	require.ElementsMatch(t, []string{events.SubjectTaskCreated, events.SubjectTaskUpdated, events.SubjectTaskDeleted}, pub.seen())
}
