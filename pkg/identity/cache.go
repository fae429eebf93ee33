package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrDuplicateEmail is returned when an identity's email is already held by
// a different identity in the cache.
var ErrDuplicateEmail = errors.New("email is already registered")

// Loader bulk-loads every identity of one role from the store.
type Loader interface {
	ListIdentities(ctx context.Context, role Role) ([]Identity, error)
}

// Cache is the in-memory list of every identity, used to authenticate
// requests without a store round-trip. It is only kept in step with writes
// that go through the entity engine; out-of-band store writes need Reload.
type Cache struct {
	mu      sync.RWMutex
	entries []Identity
}

func NewCache() *Cache {
	return &Cache{}
}

// Reload replaces the cache contents with administrators, then instructors,
// then students read from loader. On error the previous contents are kept.
func (c *Cache) Reload(ctx context.Context, loader Loader) error {
	var entries []Identity
	for _, role := range Roles {
		ids, err := loader.ListIdentities(ctx, role)
		if err != nil {
			return fmt.Errorf("loading %s identities: %w", role, err)
		}
		for i := range ids {
			ids[i].Role = role
		}
		entries = append(entries, ids...)
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Insert adds id to the cache.
func (c *Cache) Insert(id Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexByEmail(id.Email) >= 0 {
		return ErrDuplicateEmail
	}
	c.entries = append(c.entries, id)
	return nil
}

// Replace swaps the entry with the same role and id for id, inserting it
// when absent.
func (c *Cache) Replace(id Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexByEmail(id.Email); i >= 0 && !c.entries[i].sameKey(id) {
		return ErrDuplicateEmail
	}
	if i := c.indexByKey(id.Role, id.ID); i >= 0 {
		c.entries[i] = id
		return nil
	}
	c.entries = append(c.entries, id)
	return nil
}

// Remove drops the entry for role and id. Removing an absent entry is a no-op.
func (c *Cache) Remove(role Role, id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexByKey(role, id)
	if i < 0 {
		return
	}
	c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
}

// FindByEmail returns a copy of the identity registered under email.
// Matching is exact and case-sensitive.
func (c *Cache) FindByEmail(email string) (Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexByEmail(email); i >= 0 {
		return c.entries[i], true
	}
	return Identity{}, false
}

// Count returns the number of cached identities of role, or of all roles
// for RoleAny.
func (c *Cache) Count(role Role) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if role == RoleAny {
		return len(c.entries)
	}
	n := 0
	for _, e := range c.entries {
		if e.Role == role {
			n++
		}
	}
	return n
}

func (c *Cache) indexByEmail(email string) int {
	for i, e := range c.entries {
		if e.Email == email {
			return i
		}
	}
	return -1
}

func (c *Cache) indexByKey(role Role, id uint) int {
	for i, e := range c.entries {
		if e.Role == role && e.ID == id {
			return i
		}
	}
	return -1
}

func (i Identity) sameKey(o Identity) bool {
	return i.Role == o.Role && i.ID == o.ID
}
