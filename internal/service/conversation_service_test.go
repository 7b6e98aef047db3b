package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ai-salesbot-be/internal/pkg/logger"
	"ai-salesbot-be/internal/repository/file"
	"ai-salesbot-be/internal/repository/memory"
	"ai-salesbot-be/pkg/catalog"
	"ai-salesbot-be/pkg/funnel"
	"ai-salesbot-be/pkg/llm"
	"ai-salesbot-be/pkg/search"
	"ai-salesbot-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedLLM returns canned replies in order, then repeats the last one.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	prompts []string
}

func (s *scriptedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.Generate(ctx, "", options...)
}

func (s *scriptedLLM) Generate(_ context.Context, prompt string, _ ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.prompts = append(s.prompts, prompt)
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

type capturePublisher struct {
	mu       sync.Mutex
	messages []*message.Message
}

func (p *capturePublisher) Publish(_ string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msgs...)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) last(t *testing.T) *store.Session {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.messages)
	var sess store.Session
	require.NoError(t, json.Unmarshal(p.messages[len(p.messages)-1].Payload, &sess))
	return &sess
}

const testCatalog = `[
	{"name": "Apple iPhone 15", "description": "From £32 a month.", "url": "https://example.com/iphone-15"},
	{"name": "Google Pixel 8a", "description": "From £20 a month.", "url": "https://example.com/pixel-8a"}
]`

type fixture struct {
	service   IConversationService
	llm       *scriptedLLM
	publisher *capturePublisher
	sessions  *memory.SessionRepository
	snapshots *file.SnapshotRepository
}

func newFixture(t *testing.T, llmProvider *scriptedLLM) *fixture {
	t.Helper()
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "products.json")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o644))

	engine := search.NewEngine(catalog.NewLoader(catalogPath, nil), nil, nil, time.Second, nil)
	engine.Refresh(context.Background())

	snapshots := file.NewSnapshotRepository(filepath.Join(dir, "sessions"))
	sessions := memory.NewSessionRepository(time.Hour, nil)
	publisher := &capturePublisher{}

	svc := NewConversationService(
		engine,
		llmProvider,
		sessions,
		snapshots,
		publisher,
		"SESSION_SNAPSHOT",
		time.Second,
		logger.NewNopLogger(),
	)
	return &fixture{service: svc, llm: llmProvider, publisher: publisher, sessions: sessions, snapshots: snapshots}
}

func TestProcessMessageAppendsTurnPair(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: []string{"Which brand do you prefer?"}})

	res := f.service.ProcessMessage(context.Background(), "I need a phone", "sess-1")
	assert.Equal(t, "Which brand do you prefer?", res.Response)

	sess, found := f.sessions.Get("sess-1")
	require.True(t, found)
	require.Len(t, sess.Turns, 2)
	assert.Equal(t, store.RoleUser, sess.Turns[0].Role)
	assert.Equal(t, "I need a phone", sess.Turns[0].Content)
	assert.Equal(t, store.RoleAssistant, sess.Turns[1].Role)
	assert.Equal(t, store.StateInitial, sess.State)
}

func TestProcessMessageSearchesOnlyInInitialState(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: []string{"[Apple iPhone 15](https://example.com/iphone-15) is great!"}})

	res := f.service.ProcessMessage(context.Background(), "iphone", "sess-1")
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "Apple iPhone 15", res.Recommendations[0].Name)

	// push the session past INITIAL, then verify no recommendations
	sess, _ := f.sessions.Get("sess-1")
	sess.State = store.StateInsuranceUpsell
	f.sessions.Save(sess)

	f.llm.replies = []string{"Our plans cover damage and theft."}
	res = f.service.ProcessMessage(context.Background(), "what about iphone insurance", "sess-1")
	assert.Empty(t, res.Recommendations)
}

func TestProcessMessageAdvancesFunnel(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: []string{
		"Great choice! " + funnel.TriggerInsurance + " " + funnel.TagInsurance,
	}})

	res := f.service.ProcessMessage(context.Background(), "I'll take the iPhone", "sess-1")

	sess, _ := f.sessions.Get("sess-1")
	assert.Equal(t, store.StateInsuranceUpsell, sess.State)
	// the tag never reaches the customer or the log
	assert.NotContains(t, res.Response, "<<STAGE:")
	assert.NotContains(t, sess.Turns[1].Content, "<<STAGE:")
	assert.Contains(t, res.Response, funnel.TriggerInsurance)
}

func TestProcessMessageProviderFailure(t *testing.T) {
	f := newFixture(t, &scriptedLLM{err: errors.New("rate limited")})

	res := f.service.ProcessMessage(context.Background(), "iphone", "sess-1")
	assert.Equal(t, ApologyMessage, res.Response)
	// search ran before the failure, so recommendations still come back
	assert.NotEmpty(t, res.Recommendations)

	// the failed exchange leaves no trace in the session
	sess, found := f.sessions.Get("sess-1")
	require.True(t, found)
	assert.Empty(t, sess.Turns)
	assert.Equal(t, store.StateInitial, sess.State)
}

func TestProcessMessageRecommendationsGatedByLink(t *testing.T) {
	t.Run("reply without link logs no recommendations", func(t *testing.T) {
		f := newFixture(t, &scriptedLLM{replies: []string{"What's your budget?"}})
		res := f.service.ProcessMessage(context.Background(), "iphone", "sess-1")
		require.NotEmpty(t, res.Recommendations)

		sess, _ := f.sessions.Get("sess-1")
		assert.Empty(t, sess.Turns[1].Recommendations)
	})

	t.Run("reply with link logs recommendations", func(t *testing.T) {
		f := newFixture(t, &scriptedLLM{replies: []string{"Try [Apple iPhone 15](https://example.com/iphone-15)!"}})
		f.service.ProcessMessage(context.Background(), "iphone", "sess-1")

		sess, _ := f.sessions.Get("sess-1")
		require.NotEmpty(t, sess.Turns[1].Recommendations)
		assert.Equal(t, "Apple iPhone 15", sess.Turns[1].Recommendations[0].Name)
	})
}

func TestProcessMessagePublishesSnapshot(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: []string{"Hello!"}})

	f.service.ProcessMessage(context.Background(), "hi", "sess-1")

	snap := f.publisher.last(t)
	assert.Equal(t, "sess-1", snap.ID)
	assert.Len(t, snap.Turns, 2)
}

func TestProcessMessageRestoresFromSnapshot(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: []string{"Welcome back!"}})

	old := store.NewSession("sess-1")
	old.State = store.StateWatchUpsell
	old.AddTurn(store.RoleUser, "earlier message", nil)
	require.NoError(t, f.snapshots.Save(old))

	f.service.ProcessMessage(context.Background(), "I'm back", "sess-1")

	sess, found := f.sessions.Get("sess-1")
	require.True(t, found)
	assert.Equal(t, store.StateWatchUpsell, sess.State)
	assert.Len(t, sess.Turns, 3)
}

func TestProcessMessageConcurrentSameSession(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: []string{"ok"}})

	const workers = 6
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.service.ProcessMessage(context.Background(), "hello", "sess-1")
		}()
	}
	wg.Wait()

	sess, _ := f.sessions.Get("sess-1")
	require.Len(t, sess.Turns, workers*2)
	for i, turn := range sess.Turns {
		want := store.RoleUser
		if i%2 == 1 {
			want = store.RoleAssistant
		}
		assert.Equal(t, want, turn.Role, "turn %d", i)
	}
}

func TestSessionInfoConcurrentWithMessages(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: []string{"ok"}})

	const rounds = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			f.service.ProcessMessage(context.Background(), "hello", "sess-1")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			info, found := f.service.SessionInfo("sess-1")
			if !found {
				continue
			}
			// a reader serialized behind the writer only ever sees whole
			// user/assistant pairs
			assert.Zero(t, info.Turns%2, "observed a half-appended exchange")
		}
	}()
	wg.Wait()

	info, found := f.service.SessionInfo("sess-1")
	require.True(t, found)
	assert.Equal(t, rounds*2, info.Turns)
}

func TestSessionInfo(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: []string{"hi"}})
	f.service.ProcessMessage(context.Background(), "hello", "sess-1")

	info, found := f.service.SessionInfo("sess-1")
	require.True(t, found)
	assert.Equal(t, "sess-1", info.SessionID)
	assert.Equal(t, 2, info.Turns)
	assert.Equal(t, store.StateInitial, info.State)

	_, found = f.service.SessionInfo("missing")
	assert.False(t, found)
}

func TestActiveSessions(t *testing.T) {
	f := newFixture(t, &scriptedLLM{replies: []string{"hi"}})
	assert.Zero(t, f.service.ActiveSessions())

	f.service.ProcessMessage(context.Background(), "hello", "a")
	f.service.ProcessMessage(context.Background(), "hello", "b")
	assert.Equal(t, 2, f.service.ActiveSessions())
}
