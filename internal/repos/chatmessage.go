package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
  "github.com/Krisnegi/rag-knowledge-engine/internal/types"
)

type ChatMessageRepo interface {
  Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error)
  // ListBySession returns a session's messages in ask order. created_at
  // ascending is the single source of truth for conversation order.
  ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
  return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (mr *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }
  if message.ID == uuid.Nil {
    message.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(message).Error; err != nil {
    return nil, err
  }
  return message, nil
}

func (mr *chatMessageRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ChatMessage, error) {
  transaction := tx
  if transaction == nil {
    transaction = mr.db
  }
  var messages []*types.ChatMessage
  if err := transaction.WithContext(ctx).
    Where("session_id = ?", sessionID).
    Order("created_at ASC").
    Find(&messages).Error; err != nil {
    return nil, err
  }
  return messages, nil
}
