package dto

import "github.com/google/uuid"

type ProcessDocumentationRequest struct {
	Url string `json:"url" validate:"required,url"`
}

type ProcessDocumentationResponse struct {
	ChatId  uuid.UUID `json:"chat_id"`
	Status  string    `json:"status"`
	Message string    `json:"message"`
}

type ProcessingStatusResponse struct {
	ChatId       uuid.UUID `json:"chat_id"`
	Status       string    `json:"status"`
	Progress     int       `json:"progress"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// ProcessDocumentationMessage is the queue payload that hands a pending
// session to the ingestion worker.
type ProcessDocumentationMessage struct {
	ChatSessionId uuid.UUID `json:"chat_session_id"`
	Url           string    `json:"url"`
}
