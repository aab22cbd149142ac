package domain

import "github.com/google/uuid"

// User はタスク・スケジュールの所有者です
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
}
