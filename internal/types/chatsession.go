package types

import (
  "time"
  "github.com/google/uuid"
)

// TitleMaxRunes bounds the derived session title. The title is a label for
// history views, not a uniqueness key.
const TitleMaxRunes = 30

type ChatSession struct {
  ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
  Title     string    `gorm:"type:varchar(30);not null" json:"title"`
  CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (ChatSession) TableName() string {
  return "chat_session"
}
