// Package cache holds rendered detail bodies between expansions.
package cache

import (
	"container/list"
)

// LRUCache evicts the least recently used entry once it holds more than
// size entries. It is not safe for concurrent use.
type LRUCache[K comparable, V any] struct {
	size      int
	evictList *list.List
	items     map[K]*list.Element
	onEvict   func(K, V)
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

func NewLRUCache[K comparable, V any](size int) *LRUCache[K, V] {
	if size < 1 {
		size = 1
	}
	return &LRUCache[K, V]{
		size:      size,
		evictList: list.New(),
		items:     make(map[K]*list.Element),
	}
}

// OnEvict registers a callback run for every entry pushed out by Put.
func (c *LRUCache[K, V]) OnEvict(fn func(K, V)) {
	c.onEvict = fn
}

func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	if ele, hit := c.items[key]; hit {
		c.evictList.MoveToFront(ele)
		return ele.Value.(*entry[K, V]).value, true
	}
	return
}

// Peek returns a value without refreshing its position.
func (c *LRUCache[K, V]) Peek(key K) (value V, ok bool) {
	if ele, hit := c.items[key]; hit {
		return ele.Value.(*entry[K, V]).value, true
	}
	return
}

func (c *LRUCache[K, V]) Put(key K, value V) {
	if ele, hit := c.items[key]; hit {
		c.evictList.MoveToFront(ele)
		ele.Value.(*entry[K, V]).value = value
		return
	}

	ele := c.evictList.PushFront(&entry[K, V]{key, value})
	c.items[key] = ele

	if c.evictList.Len() > c.size {
		c.removeOldest()
	}
}

func (c *LRUCache[K, V]) Remove(key K) bool {
	if ele, hit := c.items[key]; hit {
		c.removeElement(ele)
		return true
	}
	return false
}

// Purge drops every entry without running the eviction callback.
func (c *LRUCache[K, V]) Purge() {
	c.evictList.Init()
	c.items = make(map[K]*list.Element)
}

func (c *LRUCache[K, V]) Len() int {
	return c.evictList.Len()
}

func (c *LRUCache[K, V]) removeOldest() {
	ele := c.evictList.Back()
	if ele != nil {
		kv := c.removeElement(ele)
		if c.onEvict != nil {
			c.onEvict(kv.key, kv.value)
		}
	}
}

func (c *LRUCache[K, V]) removeElement(e *list.Element) *entry[K, V] {
	c.evictList.Remove(e)
	kv := e.Value.(*entry[K, V])
	delete(c.items, kv.key)
	return kv
}
