package repos

import (
  "context"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
  "github.com/Krisnegi/rag-knowledge-engine/internal/types"
)

type ChatSessionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, session *types.ChatSession) (*types.ChatSession, error)
  GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ChatSession, error)
  // ListByUser returns the owner's sessions newest-activity-first.
  ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatSession, error)
  Touch(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

type chatSessionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewChatSessionRepo(db *gorm.DB, baseLog *logger.Logger) ChatSessionRepo {
  return &chatSessionRepo{db: db, log: baseLog.With("repo", "ChatSessionRepo")}
}

func (sr *chatSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ChatSession) (*types.ChatSession, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  if session.ID == uuid.Nil {
    session.ID = uuid.New()
  }
  if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
    return nil, err
  }
  return session, nil
}

func (sr *chatSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ChatSession, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  var session types.ChatSession
  if err := transaction.WithContext(ctx).
    Where("id = ?", sessionID).
    First(&session).Error; err != nil {
    return nil, err
  }
  return &session, nil
}

func (sr *chatSessionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatSession, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  var sessions []*types.ChatSession
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("updated_at DESC").
    Find(&sessions).Error; err != nil {
    return nil, err
  }
  return sessions, nil
}

func (sr *chatSessionRepo) Touch(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  return transaction.WithContext(ctx).
    Model(&types.ChatSession{}).
    Where("id = ?", sessionID).
    Update("updated_at", time.Now()).Error
}
