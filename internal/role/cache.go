package role

import (
	"log/slog"

	"github.com/frahmantamala/hr-portal/pkg/logger"
)

// Keys used in the local key/value store.
const (
	KeyCachedRole   = "hr.user_role"
	KeyCachedOwner  = "hr.user_role_owner"
	KeyTableMissing = "hr.user_roles_table_missing"
)

// Store is the local persistent key/value storage the cache writes through to.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// Cache holds the last resolved role together with the user it belongs to.
// A cached role is only handed out for the user that owns it.
type Cache struct {
	store  Store
	logger *slog.Logger
}

func NewCache(store Store, lg *slog.Logger) *Cache {
	if lg == nil {
		lg = logger.LoggerWrapper()
	}
	return &Cache{store: store, logger: lg}
}

// Get returns the cached role when it is owned by currentUserID. A cache
// entry owned by somebody else is cleared.
func (c *Cache) Get(currentUserID string) (string, bool) {
	if currentUserID == "" {
		return "", false
	}

	owner, ok, err := c.store.Get(KeyCachedOwner)
	if err != nil {
		c.logger.Warn("role cache: read owner failed", "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	if owner != currentUserID {
		c.logger.Debug("role cache: owner mismatch, clearing", "cached_owner", owner, "user_id", currentUserID)
		if err := c.Clear(); err != nil {
			c.logger.Warn("role cache: clear failed", "error", err)
		}
		return "", false
	}

	r, ok, err := c.store.Get(KeyCachedRole)
	if err != nil {
		c.logger.Warn("role cache: read role failed", "error", err)
		return "", false
	}
	if !ok || r == "" {
		return "", false
	}
	return r, true
}

// Peek returns whatever role is cached, regardless of owner. Only suitable for
// optimistic display before a session is known.
func (c *Cache) Peek() string {
	r, ok, err := c.store.Get(KeyCachedRole)
	if err != nil || !ok {
		return ""
	}
	return r
}

func (c *Cache) Set(r, userID string) error {
	if err := c.store.Set(KeyCachedRole, r); err != nil {
		return err
	}
	return c.store.Set(KeyCachedOwner, userID)
}

// Clear drops the cached role and owner. The table-missing sentinel survives.
func (c *Cache) Clear() error {
	return c.store.Delete(KeyCachedRole, KeyCachedOwner)
}

// TableMissing reports whether the remote role table is known to be absent.
func (c *Cache) TableMissing() bool {
	v, ok, err := c.store.Get(KeyTableMissing)
	if err != nil || !ok {
		return false
	}
	return v == "true"
}

func (c *Cache) MarkTableMissing() error {
	return c.store.Set(KeyTableMissing, "true")
}
