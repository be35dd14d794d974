package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Krisnegi/rag-knowledge-engine/internal/types"
)

type fakeDocumentRepo struct {
	docs      []*types.Document
	createErr error
	markCalls []string
}

func (f *fakeDocumentRepo) Create(ctx context.Context, tx *gorm.DB, doc *types.Document) (*types.Document, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	doc.CreatedAt = time.Now()
	f.docs = append(f.docs, doc)
	return doc, nil
}

func (f *fakeDocumentRepo) GetByID(ctx context.Context, tx *gorm.DB, docID uuid.UUID) (*types.Document, error) {
	for _, d := range f.docs {
		if d.ID == docID {
			return d, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeDocumentRepo) MarkStatus(ctx context.Context, tx *gorm.DB, docID uuid.UUID, status string) error {
	f.markCalls = append(f.markCalls, status)
	for _, d := range f.docs {
		if d.ID == docID && !types.IsTerminalStatus(d.Status) {
			d.Status = status
		}
	}
	return nil
}

func (f *fakeDocumentRepo) StalePending(ctx context.Context, tx *gorm.DB, olderThan time.Duration) ([]*types.Document, error) {
	cutoff := time.Now().Add(-olderThan)
	var out []*types.Document
	for _, d := range f.docs {
		if d.Status == types.StatusPending && d.CreatedAt.Before(cutoff) {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeJobQueue struct {
	jobs    []types.ScrapeJob
	pushErr error
	onPush  func(job types.ScrapeJob)
}

func (f *fakeJobQueue) Push(ctx context.Context, job types.ScrapeJob) error {
	if f.onPush != nil {
		f.onPush(job)
	}
	if f.pushErr != nil {
		return f.pushErr
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakeJobQueue) Pop(ctx context.Context, timeout time.Duration) (*types.ScrapeJob, error) {
	if len(f.jobs) == 0 {
		return nil, nil
	}
	job := f.jobs[len(f.jobs)-1]
	f.jobs = f.jobs[:len(f.jobs)-1]
	return &job, nil
}

func (f *fakeJobQueue) Close() error { return nil }

type fakeSessionRepo struct {
	sessions  []*types.ChatSession
	createErr error
	touched   []uuid.UUID
}

func (f *fakeSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.ChatSession) (*types.ChatSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.ChatSession, error) {
	for _, s := range f.sessions {
		if s.ID == sessionID {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeSessionRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.ChatSession, error) {
	var out []*types.ChatSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	// newest activity first, mirroring the SQL ordering
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].UpdatedAt.After(out[i].UpdatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Touch(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	f.touched = append(f.touched, sessionID)
	for _, s := range f.sessions {
		if s.ID == sessionID {
			s.UpdatedAt = time.Now()
		}
	}
	return nil
}

type fakeMessageRepo struct {
	messages  []*types.ChatMessage
	createErr error
}

func (f *fakeMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	message.CreatedAt = time.Now()
	f.messages = append(f.messages, message)
	return message, nil
}

func (f *fakeMessageRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.ChatMessage, error) {
	var out []*types.ChatMessage
	for _, m := range f.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeRagClient struct {
	answer  *RagAnswer
	err     error
	calls   int
	onAsk   func(query string, userID uuid.UUID)
}

func (f *fakeRagClient) Ask(ctx context.Context, query string, userID uuid.UUID) (*RagAnswer, error) {
	f.calls++
	if f.onAsk != nil {
		f.onAsk(query, userID)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &RagAnswer{Answer: "answer to: " + query, Sources: []types.Citation{}}, nil
}

type fakeUserRepo struct {
	users     []*types.User
	createErr error
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users = append(f.users, user)
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type fakeUserTokenRepo struct {
	tokens    []*types.UserToken
	createErr error
	deleted   []string
}

func (f *fakeUserTokenRepo) Create(ctx context.Context, tx *gorm.DB, token *types.UserToken) (*types.UserToken, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.tokens = append(f.tokens, token)
	return token, nil
}

func (f *fakeUserTokenRepo) GetByAccessToken(ctx context.Context, tx *gorm.DB, accessToken string) (*types.UserToken, error) {
	for _, t := range f.tokens {
		if t.AccessToken == accessToken {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserTokenRepo) DeleteByAccessToken(ctx context.Context, tx *gorm.DB, accessToken string) error {
	f.deleted = append(f.deleted, accessToken)
	kept := f.tokens[:0]
	for _, t := range f.tokens {
		if t.AccessToken != accessToken {
			kept = append(kept, t)
		}
	}
	f.tokens = kept
	return nil
}

var errBoom = fmt.Errorf("boom")

func asErr(err error, target any) bool {
	return errors.As(err, target)
}
