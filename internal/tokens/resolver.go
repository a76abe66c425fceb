// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package tokens resolves user identifiers to the device targets a
// push message should be multicast to.
package tokens

// Resolver maps a user id to that user's current push targets. An
// unknown user resolves to no targets, not an error.
type Resolver interface {
	PushTargets(userID string) ([]string, error)
}

// Cache wraps a Resolver, memoising lookups including empty results.
// A cache is scoped to a single sweep invocation and discarded at the
// end of it; it is not safe for concurrent use and must never be
// shared across invocations.
type Cache struct {
	resolver Resolver
	targets  map[string][]string
}

// NewCache returns an empty cache over the given resolver.
func NewCache(resolver Resolver) *Cache {
	return &Cache{
		resolver: resolver,
		targets:  make(map[string][]string),
	}
}

// PushTargets implements Resolver. Only successful lookups are cached;
// a resolver error is returned without poisoning the cache.
func (c *Cache) PushTargets(userID string) ([]string, error) {
	if targets, ok := c.targets[userID]; ok {
		return targets, nil
	}
	targets, err := c.resolver.PushTargets(userID)
	if err != nil {
		return nil, err
	}
	c.targets[userID] = targets
	return targets, nil
}
