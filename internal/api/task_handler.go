package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"task-service/internal/model"
	"task-service/internal/service"
)

type TaskHandler struct {
	taskService service.TaskService
}

func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (r UpdateTaskRequest) patch() model.TaskPatch {
	return model.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
}

func (h *TaskHandler) List(c *fiber.Ctx) error {
	tasks, err := h.taskService.List(c.UserContext(), IdentityFromContext(c))
	if err != nil {
		return respondError(c, err, "Failed to load tasks")
	}

	return c.JSON(fiber.Map{"tasks": tasks})
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var request CreateTaskRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	task, err := h.taskService.Create(c.UserContext(), IdentityFromContext(c), request.Title, request.Description)
	if err != nil {
		return respondError(c, err, "Failed to create task")
	}

	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) Update(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	var request UpdateTaskRequest

	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	task, err := h.taskService.Update(c.UserContext(), IdentityFromContext(c), taskID, request.patch())
	if err != nil {
		return respondError(c, err, "Failed to update task")
	}

	return c.JSON(fiber.Map{"task": task})
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid task ID"})
	}

	if err := h.taskService.Delete(c.UserContext(), IdentityFromContext(c), taskID); err != nil {
		return respondError(c, err, "Failed to delete task")
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "Task deleted successfully",
		"deletedTaskId": taskID,
	})
}
