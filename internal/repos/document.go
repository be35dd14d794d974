package repos

import (
  "context"
  "fmt"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/Krisnegi/rag-knowledge-engine/internal/logger"
  "github.com/Krisnegi/rag-knowledge-engine/internal/types"
)

type DocumentRepo interface {
  Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error)
  GetByID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (*types.Document, error)
  // MarkStatus advances a document's lifecycle. PENDING is not a valid
  // target and rows already in a terminal status are left untouched, so a
  // redelivered queue message cannot rewind a finished document.
  MarkStatus(ctx context.Context, tx *gorm.DB, docID uuid.UUID, status string) error
  // StalePending lists documents that have sat in PENDING longer than the
  // given age. Feed for an out-of-band re-enqueue sweep.
  StalePending(ctx context.Context, tx *gorm.DB, olderThan time.Duration) ([]*types.Document, error)
}

type documentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
  return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (dr *documentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }
  if doc.ID == uuid.Nil {
    doc.ID = uuid.New()
  }
  if doc.Status == "" {
    doc.Status = types.StatusPending
  }
  if err := transaction.WithContext(ctx).Create(doc).Error; err != nil {
    return nil, err
  }
  return doc, nil
}

func (dr *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (*types.Document, error) {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }
  var doc types.Document
  if err := transaction.WithContext(ctx).
    Where("id = ?", docID).
    First(&doc).Error; err != nil {
    return nil, err
  }
  return &doc, nil
}

func (dr *documentRepo) MarkStatus(ctx context.Context, tx *gorm.DB, docID uuid.UUID, status string) error {
  if status == types.StatusPending {
    return fmt.Errorf("document status cannot be reset to %s", types.StatusPending)
  }
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }
  res := transaction.WithContext(ctx).
    Model(&types.Document{}).
    Where("id = ? AND status NOT IN ?", docID, []string{types.StatusDone, types.StatusFailed}).
    Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
  if res.Error != nil {
    return res.Error
  }
  if res.RowsAffected == 0 {
    dr.log.Debug("Document status write skipped", "document_id", docID, "status", status)
  }
  return nil
}

func (dr *documentRepo) StalePending(ctx context.Context, tx *gorm.DB, olderThan time.Duration) ([]*types.Document, error) {
  transaction := tx
  if transaction == nil {
    transaction = dr.db
  }
  var docs []*types.Document
  cutoff := time.Now().Add(-olderThan)
  if err := transaction.WithContext(ctx).
    Where("status = ? AND created_at < ?", types.StatusPending, cutoff).
    Order("created_at ASC").
    Find(&docs).Error; err != nil {
    return nil, err
  }
  return docs, nil
}
