package dialog

import "sync"

// ReplyCache remembers the quick replies most recently offered to a
// listener, keyed by namespace and listener name. Entries are one-shot: the
// next Speak consumes the entry to translate a short reply word into the
// full sentence the player "said", then the slot is empty again.
//
// The cache outlives individual Dialog values, which are typically rebuilt
// every conversation turn, so the host keeps one cache per process (or per
// map) and hands it to each Dialog. All methods are safe for concurrent use.
type ReplyCache struct {
	mu      sync.Mutex
	entries map[string][]Reply
}

// NewReplyCache creates an empty ReplyCache.
func NewReplyCache() *ReplyCache {
	return &ReplyCache{entries: make(map[string][]Reply)}
}

// Put stores the replies offered this turn under key, replacing any
// previous entry.
func (c *ReplyCache) Put(key string, replies []Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = replies
}

// Take removes and returns the entry for key.
//
// Postcondition: Returns (replies, true) at most once per Put; a second
// Take returns (nil, false).
func (c *ReplyCache) Take(key string) ([]Reply, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	replies, ok := c.entries[key]
	if ok {
		delete(c.entries, key)
	}
	return replies, ok
}
