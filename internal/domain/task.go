package domain

import "time"

// Task: задача пользователя.
//
// UserID может быть nil: при удалении пользователя его задачи
// остаются без владельца (ON DELETE SET NULL).
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	UserID      *int64    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
