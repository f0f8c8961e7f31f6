package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"task-service/internal/model"
)

const (
	SubjectTaskCreated = "task.created"
	SubjectTaskUpdated = "task.updated"
	SubjectTaskDeleted = "task.deleted"
)

type EventPublisher interface {
	PublishTaskCreated(task *model.Task) error
	PublishTaskUpdated(task *model.Task) error
	PublishTaskDeleted(taskID, userID uuid.UUID) error
}

type TaskEvent struct {
	EventType  string    `json:"event_type"`
	TaskID     uuid.UUID `json:"task_id"`
	UserID     uuid.UUID `json:"user_id"`
	Title      string    `json:"title,omitempty"`
	Completed  bool      `json:"completed"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Conn is the subset of *nats.Conn used by the publisher.
type Conn interface {
	Publish(subject string, data []byte) error
}

type NatsPublisher struct {
	conn Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, *nats.Conn, error) {
	nc, err := nats.Connect(natsURL, nats.Name("task-service"))
	if err != nil {
		return nil, nil, err
	}

	return NewPublisher(nc), nc, nil
}

func NewPublisher(conn Conn) *NatsPublisher {
	return &NatsPublisher{conn: conn}
}

func NewTaskEvent(subject string, task *model.Task) TaskEvent {
	return TaskEvent{
		EventType:  subject,
		TaskID:     task.ID,
		UserID:     task.UserID,
		Title:      task.Title,
		Completed:  task.Completed,
		OccurredAt: time.Now().UTC(),
	}
}

func (p *NatsPublisher) PublishTaskCreated(task *model.Task) error {
	return p.publish(SubjectTaskCreated, NewTaskEvent(SubjectTaskCreated, task))
}

func (p *NatsPublisher) PublishTaskUpdated(task *model.Task) error {
	return p.publish(SubjectTaskUpdated, NewTaskEvent(SubjectTaskUpdated, task))
}

func (p *NatsPublisher) PublishTaskDeleted(taskID, userID uuid.UUID) error {
	return p.publish(SubjectTaskDeleted, TaskEvent{
		EventType:  SubjectTaskDeleted,
		TaskID:     taskID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
	})
}

func (p *NatsPublisher) publish(subject string, event TaskEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		slog.Error("Error marshalling event JSON", slog.String("subject", subject), slog.String("error", err.Error()))
		return err
	}

	if err := p.conn.Publish(subject, eventJSON); err != nil {
		slog.Error("Error publishing to NATS", slog.String("subject", subject), slog.String("error", err.Error()))
		return err
	}

	slog.Debug("Published event to NATS", slog.String("subject", subject), slog.String("task_id", event.TaskID.String()))

	return nil
}

// NoopPublisher drops every event. It is used when NATS_URL is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishTaskCreated(*model.Task) error { return nil }
func (NoopPublisher) PublishTaskUpdated(*model.Task) error { return nil }
func (NoopPublisher) PublishTaskDeleted(uuid.UUID, uuid.UUID) error { return nil }
