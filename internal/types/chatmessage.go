package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

// Citation is one supporting source returned by the inference backend.
// Citations are persisted in the order the backend returned them.
type Citation struct {
  Title   string `json:"title"`
  URL     string `json:"url"`
  Snippet string `json:"snippet,omitempty"`
}

type ChatMessage struct {
  ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  SessionID  uuid.UUID      `gorm:"type:uuid;index;not null" json:"session_id"`
  Session    *ChatSession   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"-"`
  UserQuery  string         `gorm:"type:text;not null;column:user_query" json:"user_query"`
  AIResponse string         `gorm:"type:text;not null;column:ai_response" json:"ai_response"`
  Sources    datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'" json:"sources"`
  CreatedAt  time.Time      `gorm:"not null;default:now();index" json:"created_at"`
}

func (ChatMessage) TableName() string {
  return "chat_message"
}
