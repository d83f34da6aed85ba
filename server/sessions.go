package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"policy_workbench/generator"
)

// sessionRegistry 按 id 保存会话；过期或删除时关闭会话。
type sessionRegistry struct {
	cache  *cache.Cache
	logger *zap.Logger
}

func newSessionRegistry(ttl time.Duration, logger *zap.Logger) *sessionRegistry {
	c := cache.New(ttl, ttl/4)
	c.OnEvicted(func(id string, v any) {
		if sess, ok := v.(*generator.Session); ok {
			sess.Close()
		}
		logger.Debug("session evicted", zap.String("session", id))
	})
	return &sessionRegistry{cache: c, logger: logger}
}

func newSessionID() string {
	return uuid.NewString()
}

func (r *sessionRegistry) set(sess *generator.Session) {
	r.cache.Set(sess.ID, sess, cache.DefaultExpiration)
}

// get returns the session and slides its expiry forward.
func (r *sessionRegistry) get(id string) (*generator.Session, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess := v.(*generator.Session)
	if !r.touch(id, sess) {
		return nil, false
	}
	return sess, true
}

// touch resets the expiry of a live entry. An entry the janitor or delete
// already evicted stays gone, so a closed session is never handed out again.
func (r *sessionRegistry) touch(id string, sess *generator.Session) bool {
	return r.cache.Replace(id, sess, cache.DefaultExpiration) == nil
}

func (r *sessionRegistry) delete(id string) bool {
	if _, ok := r.cache.Get(id); !ok {
		return false
	}
	r.cache.Delete(id)
	return true
}

func (r *sessionRegistry) count() int {
	return r.cache.ItemCount()
}

// flush closes every session. go-cache's Flush skips OnEvicted, Delete does not.
func (r *sessionRegistry) flush() {
	for id := range r.cache.Items() {
		r.cache.Delete(id)
	}
}
