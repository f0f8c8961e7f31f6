package service

import "task-service/internal/model"

// AuthorizeTaskAccess allows access only to the task's owner. Anonymous
// callers get ErrUnauthorized, other users ErrForbidden.
func AuthorizeTaskAccess(identity model.Identity, task *model.Task) error {
	if identity.IsAnonymous() {
		return ErrUnauthorized
	}
	if task.UserID != identity.UserID {
		return ErrForbidden
	}
	return nil
}
