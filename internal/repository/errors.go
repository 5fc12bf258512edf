package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrSubTaskNotFound is returned when a subtask is not found on its task
	ErrSubTaskNotFound = errors.New("subtask not found")

	// ErrUserNotFound is returned when an update or delete targets a missing user
	ErrUserNotFound = errors.New("user not found")
)
