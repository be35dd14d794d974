package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Krisnegi/rag-knowledge-engine/internal/logger"
	"github.com/Krisnegi/rag-knowledge-engine/internal/types"
)

func newChatFixture(t *testing.T) (*fakeSessionRepo, *fakeMessageRepo, *fakeRagClient, ChatService) {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	sessionRepo := &fakeSessionRepo{}
	messageRepo := &fakeMessageRepo{}
	rag := &fakeRagClient{}
	return sessionRepo, messageRepo, rag, NewChatService(nil, log, sessionRepo, messageRepo, rag)
}

func TestConverseNewConversationCreatesOneSession(t *testing.T) {
	sessionRepo, messageRepo, _, svc := newChatFixture(t)
	userID := uuid.New()

	result, err := svc.Converse(context.Background(), userID, "What is RAG?", NewConversation())
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if len(sessionRepo.sessions) != 1 {
		t.Fatalf("session count: want=1 got=%d", len(sessionRepo.sessions))
	}
	session := sessionRepo.sessions[0]
	if session.UserID != userID {
		t.Fatalf("session owner: want=%s got=%s", userID, session.UserID)
	}
	if session.Title != "What is RAG?" {
		t.Fatalf("session title: got=%q", session.Title)
	}
	if result.SessionID != session.ID {
		t.Fatalf("result session id: want=%s got=%s", session.ID, result.SessionID)
	}
	if len(messageRepo.messages) != 1 {
		t.Fatalf("message count: want=1 got=%d", len(messageRepo.messages))
	}
}

func TestConverseTitleTruncatedToThirtyRunes(t *testing.T) {
	cases := []struct {
		query string
		want  string
	}{
		{"short question", "short question"},
		{strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{strings.Repeat("a", 31), strings.Repeat("a", 30)},
		{"Explain retrieval augmented generation in depth please", "Explain retrieval augmented ge"},
		{strings.Repeat("é", 40), strings.Repeat("é", 30)},
	}
	for _, tc := range cases {
		sessionRepo, _, _, svc := newChatFixture(t)
		if _, err := svc.Converse(context.Background(), uuid.New(), tc.query, NewConversation()); err != nil {
			t.Fatalf("Converse(%q): %v", tc.query, err)
		}
		if got := sessionRepo.sessions[0].Title; got != tc.want {
			t.Fatalf("title for %q: want=%q got=%q", tc.query, tc.want, got)
		}
	}
}

func TestConverseExistingSessionAppendsWithoutCreating(t *testing.T) {
	sessionRepo, messageRepo, _, svc := newChatFixture(t)
	userID := uuid.New()

	first, err := svc.Converse(context.Background(), userID, "What is RAG?", NewConversation())
	if err != nil {
		t.Fatalf("first Converse: %v", err)
	}
	second, err := svc.Converse(context.Background(), userID, "Explain more", ExistingConversation(first.SessionID))
	if err != nil {
		t.Fatalf("second Converse: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session id changed: first=%s second=%s", first.SessionID, second.SessionID)
	}
	if len(sessionRepo.sessions) != 1 {
		t.Fatalf("session count: want=1 got=%d", len(sessionRepo.sessions))
	}
	messages, err := messageRepo.ListBySession(context.Background(), nil, first.SessionID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("message count: want=2 got=%d", len(messages))
	}
	if messages[0].UserQuery != "What is RAG?" || messages[1].UserQuery != "Explain more" {
		t.Fatalf("messages out of ask order: %q then %q", messages[0].UserQuery, messages[1].UserQuery)
	}
	if messages[1].CreatedAt.Before(messages[0].CreatedAt) {
		t.Fatalf("created_at not non-decreasing")
	}
}

func TestConverseUnknownSessionRejected(t *testing.T) {
	sessionRepo, messageRepo, rag, svc := newChatFixture(t)
	_, err := svc.Converse(context.Background(), uuid.New(), "hello", ExistingConversation(uuid.New()))
	if err == nil {
		t.Fatalf("Converse: expected error for unknown session")
	}
	var vErr *ValidationError
	if !asErr(err, &vErr) {
		t.Fatalf("want ValidationError got %T (%v)", err, err)
	}
	if len(sessionRepo.sessions) != 0 || len(messageRepo.messages) != 0 || rag.calls != 0 {
		t.Fatalf("side effects leaked on unknown session")
	}
}

func TestConverseEmptyQueryRejectedBeforeSideEffects(t *testing.T) {
	sessionRepo, messageRepo, rag, svc := newChatFixture(t)
	_, err := svc.Converse(context.Background(), uuid.New(), "", NewConversation())
	if err == nil {
		t.Fatalf("Converse: expected error for empty query")
	}
	var vErr *ValidationError
	if !asErr(err, &vErr) {
		t.Fatalf("want ValidationError got %T", err)
	}
	if len(sessionRepo.sessions) != 0 || len(messageRepo.messages) != 0 || rag.calls != 0 {
		t.Fatalf("side effects leaked on empty query")
	}
}

func TestConverseSessionCommitsBeforeInferenceCall(t *testing.T) {
	sessionRepo, _, rag, svc := newChatFixture(t)
	rag.onAsk = func(query string, userID uuid.UUID) {
		if len(sessionRepo.sessions) != 1 {
			t.Fatalf("inference called before the session row committed")
		}
	}
	if _, err := svc.Converse(context.Background(), uuid.New(), "hello", NewConversation()); err != nil {
		t.Fatalf("Converse: %v", err)
	}
}

func TestConverseInferenceFailureLeavesAbandonedSession(t *testing.T) {
	sessionRepo, messageRepo, rag, svc := newChatFixture(t)
	rag.err = &DownstreamError{Err: errBoom}

	_, err := svc.Converse(context.Background(), uuid.New(), "hello", NewConversation())
	if err == nil {
		t.Fatalf("Converse: expected downstream failure to propagate")
	}
	var dErr *DownstreamError
	if !asErr(err, &dErr) {
		t.Fatalf("want DownstreamError got %T (%v)", err, err)
	}
	if len(sessionRepo.sessions) != 1 {
		t.Fatalf("abandoned session: want=1 got=%d", len(sessionRepo.sessions))
	}
	if len(messageRepo.messages) != 0 {
		t.Fatalf("no message should persist on inference failure, got=%d", len(messageRepo.messages))
	}
}

func TestConversePersistsSourcesInBackendOrder(t *testing.T) {
	_, messageRepo, rag, svc := newChatFixture(t)
	rag.answer = &RagAnswer{
		Answer: "answer",
		Sources: []types.Citation{
			{Title: "first", URL: "https://a.example"},
			{Title: "second", URL: "https://b.example"},
			{Title: "third", URL: "https://c.example"},
		},
	}
	result, err := svc.Converse(context.Background(), uuid.New(), "hello", NewConversation())
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if len(result.Sources) != 3 || result.Sources[0].Title != "first" || result.Sources[2].Title != "third" {
		t.Fatalf("result sources order mismatch: %+v", result.Sources)
	}
	var stored []types.Citation
	if err := json.Unmarshal(messageRepo.messages[0].Sources, &stored); err != nil {
		t.Fatalf("stored sources decode: %v", err)
	}
	if len(stored) != 3 || stored[0].Title != "first" || stored[1].Title != "second" || stored[2].Title != "third" {
		t.Fatalf("stored sources order mismatch: %+v", stored)
	}
}

func TestConverseBumpsSessionActivity(t *testing.T) {
	sessionRepo, _, _, svc := newChatFixture(t)
	result, err := svc.Converse(context.Background(), uuid.New(), "hello", NewConversation())
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if len(sessionRepo.touched) != 1 || sessionRepo.touched[0] != result.SessionID {
		t.Fatalf("session activity not bumped: %v", sessionRepo.touched)
	}
}

func TestHistoryGroupsMessagesUnderSessions(t *testing.T) {
	_, _, _, svc := newChatFixture(t)
	userID := uuid.New()

	first, err := svc.Converse(context.Background(), userID, "session one", NewConversation())
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	second, err := svc.Converse(context.Background(), userID, "session two", NewConversation())
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if _, err := svc.Converse(context.Background(), userID, "followup", ExistingConversation(first.SessionID)); err != nil {
		t.Fatalf("Converse: %v", err)
	}

	history, err := svc.History(context.Background(), userID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history session count: want=2 got=%d", len(history))
	}
	// first session got the most recent append, so it lists first
	if history[0].Session.ID != first.SessionID {
		t.Fatalf("history order: want session %s first, got %s", first.SessionID, history[0].Session.ID)
	}
	if len(history[0].Messages) != 2 || len(history[1].Messages) != 1 {
		t.Fatalf("history message counts: got %d and %d", len(history[0].Messages), len(history[1].Messages))
	}
	if history[0].Messages[0].UserQuery != "session one" || history[0].Messages[1].UserQuery != "followup" {
		t.Fatalf("history messages out of ask order")
	}
	if history[1].Session.ID != second.SessionID {
		t.Fatalf("history order: want session %s second, got %s", second.SessionID, history[1].Session.ID)
	}

	// repeated reads with no intervening writes are identical
	again, err := svc.History(context.Background(), userID)
	if err != nil {
		t.Fatalf("History again: %v", err)
	}
	if len(again) != len(history) || again[0].Session.ID != history[0].Session.ID {
		t.Fatalf("history not idempotent across reads")
	}
}

func TestHistoryEmptyForUnknownUser(t *testing.T) {
	_, _, _, svc := newChatFixture(t)
	history, err := svc.History(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history for unknown user: want=0 got=%d", len(history))
	}
}
