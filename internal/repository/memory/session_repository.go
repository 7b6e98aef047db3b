package memory

import (
	"hash/fnv"
	"sync"
	"time"

	"ai-salesbot-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// lockStripes is the size of the fixed lock set. Session ids hash onto a
// stripe, so memory stays constant no matter how many ids pass through;
// two sessions sharing a stripe merely serialize against each other.
const lockStripes = 256

// SessionRepository holds the active sessions in a bounded TTL cache. An
// eviction callback flushes the session to durable storage so an expired
// session can be reloaded from its snapshot on the next message. The
// flush runs under the session's stripe lock, so it never observes a
// session mid-mutation.
type SessionRepository struct {
	cache *cache.Cache
	locks [lockStripes]sync.Mutex
}

// NewSessionRepository creates a store whose entries expire after ttl and
// are purged roughly six times per ttl window.
func NewSessionRepository(ttl time.Duration, onEvict func(*store.Session)) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	r := &SessionRepository{cache: cache.New(ttl, ttl/6)}
	if onEvict != nil {
		r.cache.OnEvicted(func(id string, v interface{}) {
			sess, ok := v.(*store.Session)
			if !ok {
				return
			}
			// The janitor runs on its own goroutine; take the session's
			// lock so the flush cannot race an in-flight message.
			mu := r.Lock(id)
			mu.Lock()
			defer mu.Unlock()
			onEvict(sess)
		})
	}
	return r
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

// Count returns the number of live sessions.
func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// DeleteExpired forces an eviction pass; the janitor does this on its own
// schedule, tests call it directly.
func (r *SessionRepository) DeleteExpired() {
	r.cache.DeleteExpired()
}

// Lock returns the mutex serializing all work for one session id. Every
// access to a session, read or write, must run under this lock so
// overlapping requests cannot interleave, drop turns, or observe a
// half-updated session.
func (r *SessionRepository) Lock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &r.locks[h.Sum32()%lockStripes]
}
