package services

import (
  "context"
  "fmt"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/Krisnegi/rag-knowledge-engine/internal/clients/redis"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
  "github.com/Krisnegi/rag-knowledge-engine/internal/repos"
  "github.com/Krisnegi/rag-knowledge-engine/internal/types"
  "github.com/Krisnegi/rag-knowledge-engine/internal/utils"
)

// IngestionService turns a scrape request into a durable document row plus
// a queue message. The row always commits before the message is pushed, so
// a job visible to the worker is always backed by a record; the reverse
// (a PENDING row with no message, after a failed push) is tolerated and
// surfaced through DocumentRepo.StalePending.
type IngestionService interface {
  Submit(ctx context.Context, userID uuid.UUID, url string) (*SubmitResult, error)
  StalePending(ctx context.Context, olderThan time.Duration) ([]*types.Document, error)
}

type SubmitResult struct {
  JobID  uuid.UUID `json:"job_id"`
  Status string    `json:"status"`
}

type ingestionService struct {
  db           *gorm.DB
  log          *logger.Logger
  documentRepo repos.DocumentRepo
  queue        redis.JobQueue
}

func NewIngestionService(
  db *gorm.DB,
  baseLog *logger.Logger,
  documentRepo repos.DocumentRepo,
  queue redis.JobQueue,
) IngestionService {
  return &ingestionService{
    db:           db,
    log:          baseLog.With("service", "IngestionService"),
    documentRepo: documentRepo,
    queue:        queue,
  }
}

func (is *ingestionService) Submit(ctx context.Context, userID uuid.UUID, url string) (*SubmitResult, error) {
  if userID == uuid.Nil {
    return nil, &ValidationError{Err: fmt.Errorf("an authenticated user is required")}
  }
  if err := utils.ValidateAbsoluteURL(url); err != nil {
    return nil, &ValidationError{Err: err}
  }

  // Durability checkpoint: once this insert commits the request is
  // recorded, whatever happens to the queue push below.
  doc := &types.Document{
    ID:        uuid.New(),
    SourceURL: url,
    UserID:    userID,
    Status:    types.StatusPending,
  }
  if _, err := is.documentRepo.Create(ctx, nil, doc); err != nil {
    return nil, fmt.Errorf("failed to create document: %w", err)
  }

  job := types.ScrapeJob{
    JobID:  doc.ID,
    URL:    doc.SourceURL,
    UserID: doc.UserID,
  }
  if err := is.queue.Push(ctx, job); err != nil {
    // No retry and no compensating delete: the PENDING row stays behind
    // for the reconciliation sweep to find.
    is.log.Error("Queue push failed after document insert", "document_id", doc.ID, "error", err)
    return nil, fmt.Errorf("failed to enqueue scrape job: %w", err)
  }

  is.log.Info("Job submitted", "document_id", doc.ID, "user_id", userID)
  return &SubmitResult{JobID: doc.ID, Status: doc.Status}, nil
}

func (is *ingestionService) StalePending(ctx context.Context, olderThan time.Duration) ([]*types.Document, error) {
  return is.documentRepo.StalePending(ctx, nil, olderThan)
}
