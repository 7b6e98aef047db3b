package memory

import (
	"sync"
	"testing"
	"time"

	"ai-salesbot-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndGet(t *testing.T) {
	repo := NewSessionRepository(time.Hour, nil)

	sess := store.NewSession("sess-1")
	sess.AddTurn(store.RoleUser, "hello", nil)
	repo.Save(sess)

	got, found := repo.Get("sess-1")
	require.True(t, found)
	assert.Equal(t, "sess-1", got.ID)
	assert.Len(t, got.Turns, 1)

	_, found = repo.Get("missing")
	assert.False(t, found)
}

func TestDeleteAndCount(t *testing.T) {
	repo := NewSessionRepository(time.Hour, nil)
	repo.Save(store.NewSession("a"))
	repo.Save(store.NewSession("b"))
	assert.Equal(t, 2, repo.Count())

	repo.Delete("a")
	assert.Equal(t, 1, repo.Count())
	_, found := repo.Get("a")
	assert.False(t, found)
}

func TestEvictionCallbackFires(t *testing.T) {
	var mu sync.Mutex
	var evicted []string
	repo := NewSessionRepository(10*time.Millisecond, func(sess *store.Session) {
		mu.Lock()
		evicted = append(evicted, sess.ID)
		mu.Unlock()
	})

	repo.Save(store.NewSession("short-lived"))
	time.Sleep(20 * time.Millisecond)
	repo.DeleteExpired()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, evicted, 1)
	assert.Equal(t, "short-lived", evicted[0])
}

func TestLockSerializesPerSession(t *testing.T) {
	repo := NewSessionRepository(time.Hour, nil)
	repo.Save(store.NewSession("sess-1"))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu := repo.Lock("sess-1")
			mu.Lock()
			defer mu.Unlock()
			sess, _ := repo.Get("sess-1")
			sess.AddTurn(store.RoleUser, "msg", nil)
			repo.Save(sess)
		}()
	}
	wg.Wait()

	sess, _ := repo.Get("sess-1")
	assert.Len(t, sess.Turns, workers)
}

func TestLockIsStablePerID(t *testing.T) {
	repo := NewSessionRepository(time.Hour, nil)
	assert.Same(t, repo.Lock("x"), repo.Lock("x"))
	assert.Same(t, repo.Lock("some-long-session-identifier"), repo.Lock("some-long-session-identifier"))
}

func TestEvictionFlushWaitsForSessionLock(t *testing.T) {
	flushed := make(chan string, 1)
	repo := NewSessionRepository(10*time.Millisecond, func(sess *store.Session) {
		flushed <- sess.ID
	})

	sess := store.NewSession("busy")
	repo.Save(sess)

	mu := repo.Lock("busy")
	mu.Lock()

	time.Sleep(20 * time.Millisecond)
	evictionDone := make(chan struct{})
	go func() {
		repo.DeleteExpired()
		close(evictionDone)
	}()

	// the flush callback must not run while the session is mid-message
	select {
	case id := <-flushed:
		mu.Unlock()
		t.Fatalf("flush for %q ran while the session lock was held", id)
	case <-time.After(50 * time.Millisecond):
	}

	sess.AddTurn(store.RoleUser, "still writing", nil)
	mu.Unlock()

	select {
	case id := <-flushed:
		assert.Equal(t, "busy", id)
	case <-time.After(2 * time.Second):
		t.Fatal("flush never ran after the lock was released")
	}
	<-evictionDone
}
