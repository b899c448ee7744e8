// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

// Package cache holds small in-process caches.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	key        string
	prev, next *entry
	expiresAt  time.Time
}

// LRU is a bounded set of keys with a TTL. The least recently touched key is
// evicted when capacity is reached; expired keys are dropped lazily.
// It is safe for concurrent use.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	items      map[string]*entry
	head, tail *entry // sentinels; head.next is the newest

	hits, misses int64
}

// NewLRU defaults to 10000 keys and a 5 minute TTL.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 10000
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &LRU{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]*entry, capacity),
		head:     &entry{},
		tail:     &entry{},
	}
	c.head.next = c.tail
	c.tail.prev = c.head
	return c
}

// Contains reports whether key is present and unexpired. A hit refreshes
// its recency but not its expiry.
func (c *LRU) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.items[key]
	if !ok {
		c.misses++
		return false
	}
	if c.now().After(e.expiresAt) {
		c.remove(e)
		c.misses++
		return false
	}
	c.unlink(e)
	c.pushFront(e)
	c.hits++
	return true
}

// Add records key, resetting its TTL.
func (c *LRU) Add(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if e, ok := c.items[key]; ok {
		e.expiresAt = expires
		c.unlink(e)
		c.pushFront(e)
		return
	}
	e := &entry{key: key, expiresAt: expires}
	c.pushFront(e)
	c.items[key] = e
	for len(c.items) > c.capacity {
		c.remove(c.tail.prev)
	}
}

// Remove drops key and reports whether it was present.
func (c *LRU) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if ok {
		c.remove(e)
	}
	return ok
}

// Len counts stored keys, expired ones included until they are touched.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns hit and miss counts for Contains.
func (c *LRU) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Locked helpers.

func (c *LRU) pushFront(e *entry) {
	e.prev = c.head
	e.next = c.head.next
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRU) unlink(e *entry) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *LRU) remove(e *entry) {
	c.unlink(e)
	delete(c.items, e.key)
}
