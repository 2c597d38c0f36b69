package dto

import (
	"time"

	"github.com/google/uuid"
)

type SendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

type SendMessageResponse struct {
	ChatId   uuid.UUID              `json:"chat_id"`
	Response string                 `json:"response"`
	Sources  []string               `json:"sources"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type ChatHistoryMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Sources   []string  `json:"sources"`
}

type ChatHistoryResponse struct {
	ChatId   uuid.UUID            `json:"chat_id"`
	Messages []ChatHistoryMessage `json:"messages"`
}

type DeleteChatResponse struct {
	Message string `json:"message"`
}
