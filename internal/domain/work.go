package domain

import "time"

// WorkStatus: статус работы.
type WorkStatus string

const (
	WorkStatusTodo       WorkStatus = "todo"
	WorkStatusInProgress WorkStatus = "in_progress"
	WorkStatusDone       WorkStatus = "done"
)

// Valid проверяет, что статус из известного набора.
func (s WorkStatus) Valid() bool {
	switch s {
	case WorkStatusTodo, WorkStatusInProgress, WorkStatusDone:
		return true
	default:
		return false
	}
}

// Work: единица работы (ресурс /works).
type Work struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      WorkStatus `json:"status"`
	UserID      *int64     `json:"user_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
