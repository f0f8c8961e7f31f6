package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"task-service/internal/events"
	"task-service/internal/model"
	"task-service/internal/repository"
)

type TaskService interface {
	List(ctx context.Context, identity model.Identity) ([]model.Task, error)
	Create(ctx context.Context, identity model.Identity, title, description string) (*model.Task, error)
	Update(ctx context.Context, identity model.Identity, taskID uuid.UUID, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, identity model.Identity, taskID uuid.UUID) error
}

type taskService struct {
	taskRepo  repository.TaskRepository
	publisher events.EventPublisher
}

func NewTaskService(repo repository.TaskRepository, pub events.EventPublisher) TaskService {
	if pub == nil {
		pub = events.NoopPublisher{}
	}
	return &taskService{taskRepo: repo, publisher: pub}
}

func (s *taskService) List(ctx context.Context, identity model.Identity) ([]model.Task, error) {
	if identity.IsAnonymous() {
		return nil, ErrUnauthorized
	}

	tasks, err := s.taskRepo.ListByOwner(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (s *taskService) Create(ctx context.Context, identity model.Identity, title, description string) (*model.Task, error) {
	if identity.IsAnonymous() {
		return nil, ErrUnauthorized
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationError("Task title is required")
	}

	task := &model.Task{
		Title:       title,
		Description: strings.TrimSpace(description),
		Completed:   false,
		UserID:      identity.UserID,
	}

	created, err := s.taskRepo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	go s.notify(events.SubjectTaskCreated, func() error { return s.publisher.PublishTaskCreated(created) })

	return created, nil
}

func (s *taskService) Update(ctx context.Context, identity model.Identity, taskID uuid.UUID, patch model.TaskPatch) (*model.Task, error) {
	if identity.IsAnonymous() {
		return nil, ErrUnauthorized
	}

	patch, err := normalizePatch(patch)
	if err != nil {
		return nil, err
	}

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := AuthorizeTaskAccess(identity, task); err != nil {
		return nil, err
	}

	patch.Apply(task)

	updated, err := s.taskRepo.Update(ctx, task)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task %s: %w", taskID, err)
	}

	go s.notify(events.SubjectTaskUpdated, func() error { return s.publisher.PublishTaskUpdated(updated) })

	return updated, nil
}

func (s *taskService) Delete(ctx context.Context, identity model.Identity, taskID uuid.UUID) error {
	if identity.IsAnonymous() {
		return ErrUnauthorized
	}

	task, err := s.findTask(ctx, taskID)
	if err != nil {
		return err
	}

	if err := AuthorizeTaskAccess(identity, task); err != nil {
		return err
	}

	// The delete is conditioned on the owner of the record fetched above.
	removed, err := s.taskRepo.DeleteOwned(ctx, task.ID, task.UserID)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	if removed == 0 {
		return ErrDeleteFailed
	}

	go s.notify(events.SubjectTaskDeleted, func() error { return s.publisher.PublishTaskDeleted(task.ID, task.UserID) })

	return nil
}

func (s *taskService) findTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find task %s: %w", taskID, err)
	}
	return task, nil
}

func (s *taskService) notify(subject string, publish func() error) {
	if err := publish(); err != nil {
		slog.Warn("Failed to publish task event", slog.String("subject", subject), slog.String("error", err.Error()))
	}
}

func normalizePatch(patch model.TaskPatch) (model.TaskPatch, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return patch, validationError("Task title cannot be empty")
		}
		patch.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}
	return patch, nil
}
