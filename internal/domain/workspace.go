package domain

import "time"

// Workspace: рабочее пространство, объединяющее пользователей.
//
// Связь users ↔ workspaces: многие-ко-многим через таблицу user_workspace.
type Workspace struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Membership: участие пользователя в workspace.
type Membership struct {
	WorkspaceID int64     `json:"workspace_id"`
	UserID      int64     `json:"user_id"`
	JoinedAt    time.Time `json:"joined_at"`
}
