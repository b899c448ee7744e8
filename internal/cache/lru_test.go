// Trinity - Group Consensus and Resilient Content Supply
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU(3, time.Minute)
	c.Add("a")
	c.Add("b")
	c.Add("c")

	c.Contains("a") // a becomes newest
	c.Add("d")

	if c.Contains("b") {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if !c.Contains(k) {
			t.Errorf("%s should be present", k)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len = %d, want 3", c.Len())
	}
}

func TestLRU_Expiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := NewLRU(10, time.Second)
	c.now = func() time.Time { return now }

	c.Add("e1")
	now = now.Add(500 * time.Millisecond)
	if !c.Contains("e1") {
		t.Fatal("e1 should still be live")
	}
	now = now.Add(time.Second)
	if c.Contains("e1") {
		t.Error("e1 should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired key not dropped, Len = %d", c.Len())
	}

	c.Add("e2")
	now = now.Add(900 * time.Millisecond)
	c.Add("e2") // refresh
	now = now.Add(900 * time.Millisecond)
	if !c.Contains("e2") {
		t.Error("Add should reset the TTL")
	}
}

func TestLRU_RemoveAndStats(t *testing.T) {
	c := NewLRU(0, 0)
	c.Add("x")
	if !c.Remove("x") || c.Remove("x") {
		t.Error("Remove should report presence once")
	}
	c.Contains("x")
	c.Add("y")
	c.Contains("y")
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Stats = %d/%d, want 1/1", hits, misses)
	}
}

func TestLRU_Concurrent(t *testing.T) {
	c := NewLRU(100, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := strconv.Itoa((g * 500) + i)
				c.Add(k)
				c.Contains(k)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 100 {
		t.Errorf("Len = %d exceeds capacity", c.Len())
	}
}
