package inmem

import (
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/trezcool/tutordesk/core/wizard"
)

// SessionStore keeps wizard sessions in memory and expires the idle ones.
type SessionStore struct {
	cache *cache.Cache
}

var _ wizard.Store = (*SessionStore)(nil)

func NewSessionStore(ttl time.Duration) *SessionStore {
	c := cache.New(ttl, ttl/2)
	// expired sessions are closed so late pipeline results get dropped
	c.OnEvicted(func(_ string, v interface{}) {
		if sess, ok := v.(*wizard.Session); ok {
			sess.Close()
		}
	})
	return &SessionStore{cache: c}
}

func (s *SessionStore) Save(sess *wizard.Session) error {
	s.cache.SetDefault(sess.ID(), sess)
	return nil
}

// Get returns the session and extends its lifetime.
func (s *SessionStore) Get(id string) (*wizard.Session, error) {
	v, found := s.cache.Get(id)
	if !found {
		return nil, wizard.ErrSessionNotFound
	}
	sess := v.(*wizard.Session)
	s.cache.SetDefault(id, sess)
	return sess, nil
}

func (s *SessionStore) Delete(id string) error {
	s.cache.Delete(id)
	return nil
}

func (s *SessionStore) Count() int {
	return s.cache.ItemCount()
}
