package types

import (
  "time"
  "github.com/google/uuid"
)

// Document status values. The gateway only ever writes StatusPending; the
// scrape worker owns every later transition. A terminal status is never
// rewound to PENDING.
const (
  StatusPending    = "PENDING"
  StatusProcessing = "PROCESSING"
  StatusDone       = "DONE"
  StatusFailed     = "FAILED"
)

func IsTerminalStatus(status string) bool {
  return status == StatusDone || status == StatusFailed
}

type Document struct {
  ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  SourceURL string    `gorm:"type:text;not null;column:source_url" json:"source_url"`
  UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
  Status    string    `gorm:"type:text;not null;default:'PENDING';index" json:"status"`
  CreatedAt time.Time `gorm:"not null;default:now();index" json:"created_at"`
  UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string {
  return "document"
}
