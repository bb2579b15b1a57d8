// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"container/list"
	"sync"

	"github.com/novatechflow/hwpscale/internal/metrics"
)

// StreamCache provides an LRU cache keyed by container source and stream name
// storing raw stream bytes.
type StreamCache struct {
	mu       sync.Mutex
	capacity int
	size     int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key    string
	source string
	stream string
	data   []byte
}

// NewStreamCache creates a cache with capacity in bytes.
func NewStreamCache(capacityBytes int) *StreamCache {
	if capacityBytes <= 0 {
		capacityBytes = 1
	}
	return &StreamCache{
		capacity: capacityBytes,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func makeKey(source, stream string) string {
	return source + "\x00" + stream
}

// Get returns cached data if present.
func (c *StreamCache) Get(source, stream string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[makeKey(source, stream)]; ok {
		c.ll.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry)
		metrics.StreamCacheHits.WithLabelValues("hit").Inc()
		return entry.data, true
	}
	metrics.StreamCacheHits.WithLabelValues("miss").Inc()
	return nil, false
}

// Set adds or updates a cache entry. Streams larger than the capacity are not
// cached.
func (c *StreamCache) Set(source, stream string, data []byte) {
	if len(data) > c.capacity {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := makeKey(source, stream)
	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*cacheEntry)
		c.size -= len(entry.data)
		entry.data = append([]byte(nil), data...)
		c.size += len(entry.data)
		c.ll.MoveToFront(elem)
		c.evictIfNeeded()
		return
	}
	copyData := append([]byte(nil), data...)
	entry := &cacheEntry{
		key:    key,
		source: source,
		stream: stream,
		data:   copyData,
	}
	elem := c.ll.PushFront(entry)
	c.items[key] = elem
	c.size += len(copyData)
	c.evictIfNeeded()
}

// Len returns the number of cached streams.
func (c *StreamCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Size returns the cached byte total.
func (c *StreamCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *StreamCache) evictIfNeeded() {
	for c.size > c.capacity && c.ll.Len() > 0 {
		elem := c.ll.Back()
		entry := elem.Value.(*cacheEntry)
		delete(c.items, entry.key)
		c.ll.Remove(elem)
		c.size -= len(entry.data)
	}
}
