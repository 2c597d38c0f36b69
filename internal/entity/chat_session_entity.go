package entity

import (
	"time"

	"github.com/google/uuid"
)

// Processing status values for a chat session's documentation
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type ChatSession struct {
	Id           uuid.UUID
	Url          string
	Status       string
	Progress     int
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
