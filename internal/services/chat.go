package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
  "github.com/Krisnegi/rag-knowledge-engine/internal/repos"
  "github.com/Krisnegi/rag-knowledge-engine/internal/types"
  "github.com/Krisnegi/rag-knowledge-engine/internal/utils"
)

// SessionRef distinguishes "start a new conversation" from "continue an
// existing one" instead of threading a nullable id around.
type SessionRef struct {
  id       uuid.UUID
  existing bool
}

func NewConversation() SessionRef {
  return SessionRef{}
}

func ExistingConversation(id uuid.UUID) SessionRef {
  return SessionRef{id: id, existing: true}
}

type ConverseResult struct {
  SessionID uuid.UUID        `json:"session_id"`
  Answer    string           `json:"answer"`
  Sources   []types.Citation `json:"sources"`
}

type SessionHistory struct {
  Session  *types.ChatSession   `json:"session"`
  Messages []*types.ChatMessage `json:"messages"`
}

// ChatService owns the conversation lifecycle: session resolution, the
// synchronous inference call, and the persisted turn. The session row
// commits before the inference call, so a session with zero messages is a
// legal leftover of a failed turn, not an error state.
type ChatService interface {
  Converse(ctx context.Context, userID uuid.UUID, query string, ref SessionRef) (*ConverseResult, error)
  History(ctx context.Context, userID uuid.UUID) ([]*SessionHistory, error)
}

type chatService struct {
  db          *gorm.DB
  log         *logger.Logger
  sessionRepo repos.ChatSessionRepo
  messageRepo repos.ChatMessageRepo
  rag         RagClient
}

func NewChatService(
  db *gorm.DB,
  baseLog *logger.Logger,
  sessionRepo repos.ChatSessionRepo,
  messageRepo repos.ChatMessageRepo,
  rag RagClient,
) ChatService {
  return &chatService{
    db:          db,
    log:         baseLog.With("service", "ChatService"),
    sessionRepo: sessionRepo,
    messageRepo: messageRepo,
    rag:         rag,
  }
}

func (cs *chatService) Converse(ctx context.Context, userID uuid.UUID, query string, ref SessionRef) (*ConverseResult, error) {
  if userID == uuid.Nil {
    return nil, &ValidationError{Err: fmt.Errorf("an authenticated user is required")}
  }
  if query == "" {
    return nil, &ValidationError{Err: fmt.Errorf("a query is required")}
  }

  session, err := cs.resolveSession(ctx, userID, query, ref)
  if err != nil {
    return nil, err
  }

  answer, err := cs.rag.Ask(ctx, query, userID)
  if err != nil {
    // The session row stays committed; an abandoned zero-message session
    // is cheaper than a compensating delete.
    cs.log.Warn("Inference call failed", "session_id", session.ID, "error", err)
    return nil, err
  }

  sources, err := json.Marshal(answer.Sources)
  if err != nil {
    return nil, fmt.Errorf("failed to encode sources: %w", err)
  }
  message := &types.ChatMessage{
    ID:         uuid.New(),
    SessionID:  session.ID,
    UserQuery:  query,
    AIResponse: answer.Answer,
    Sources:    datatypes.JSON(sources),
  }
  if _, err := cs.messageRepo.Create(ctx, nil, message); err != nil {
    return nil, fmt.Errorf("failed to persist chat message: %w", err)
  }
  if err := cs.sessionRepo.Touch(ctx, nil, session.ID); err != nil {
    return nil, fmt.Errorf("failed to bump session activity: %w", err)
  }

  cs.log.Info("Message appended", "session_id", session.ID, "user_id", userID)
  return &ConverseResult{
    SessionID: session.ID,
    Answer:    answer.Answer,
    Sources:   answer.Sources,
  }, nil
}

// resolveSession trusts a supplied session id as-is. There is deliberately
// no ownership check against the caller; see the compatibility note in
// DESIGN.md before tightening this.
func (cs *chatService) resolveSession(ctx context.Context, userID uuid.UUID, query string, ref SessionRef) (*types.ChatSession, error) {
  if ref.existing {
    session, err := cs.sessionRepo.GetByID(ctx, nil, ref.id)
    if err != nil {
      if errors.Is(err, gorm.ErrRecordNotFound) {
        return nil, &ValidationError{Err: fmt.Errorf("session %s not found", ref.id)}
      }
      return nil, fmt.Errorf("failed to load session: %w", err)
    }
    return session, nil
  }

  session := &types.ChatSession{
    ID:     uuid.New(),
    UserID: userID,
    Title:  utils.TruncateRunes(query, types.TitleMaxRunes),
  }
  if _, err := cs.sessionRepo.Create(ctx, nil, session); err != nil {
    return nil, fmt.Errorf("failed to create session: %w", err)
  }
  cs.log.Info("Session created", "session_id", session.ID, "user_id", userID)
  return session, nil
}

func (cs *chatService) History(ctx context.Context, userID uuid.UUID) ([]*SessionHistory, error) {
  if userID == uuid.Nil {
    return nil, &ValidationError{Err: fmt.Errorf("an authenticated user is required")}
  }
  sessions, err := cs.sessionRepo.ListByUser(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("failed to list sessions: %w", err)
  }
  history := make([]*SessionHistory, 0, len(sessions))
  for _, session := range sessions {
    messages, err := cs.messageRepo.ListBySession(ctx, nil, session.ID)
    if err != nil {
      return nil, fmt.Errorf("failed to list messages for session %s: %w", session.ID, err)
    }
    history = append(history, &SessionHistory{Session: session, Messages: messages})
  }
  return history, nil
}
