package stream

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Update is one value delivered to subscribers of a key.
type Update struct {
	Key     string
	Payload interface{}
}

// Subscription is a live read stream over one query key. C yields the value
// current at subscribe time (when one exists) and then a value per change.
// Cancel stops delivery and releases the subscriber; it is safe to call twice.
type Subscription struct {
	C      <-chan Update
	ch     chan Update
	cancel func()
	once   sync.Once
}

func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
}

// Hub fans published values out to per-key subscriber sets. The latest value
// of each key is retained so new subscribers start with the current state
// instead of waiting for the next change.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan Update]struct{}
	last map[string]Update
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan Update]struct{}),
		last: make(map[string]Update),
	}
}

// Subscribe registers a new stream on key.
func (h *Hub) Subscribe(key string) *Subscription {
	ch := make(chan Update, 16)

	h.mu.Lock()
	if _, ok := h.subs[key]; !ok {
		h.subs[key] = make(map[chan Update]struct{})
	}
	h.subs[key][ch] = struct{}{}
	cur, hasCur := h.last[key]
	if hasCur {
		ch <- cur
	}
	h.mu.Unlock()

	sub := &Subscription{C: ch, ch: ch}
	sub.cancel = func() {
		h.mu.Lock()
		if set, ok := h.subs[key]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, key)
			}
		}
		h.mu.Unlock()
		close(ch)
	}
	return sub
}

// Publish records payload as the current value of key and delivers it to
// every live subscriber. Delivery never blocks: a subscriber whose buffer is
// full misses intermediate values but keeps receiving later ones.
func (h *Hub) Publish(key string, payload interface{}) {
	u := Update{Key: key, Payload: payload}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last[key] = u
	for ch := range h.subs[key] {
		select {
		case ch <- u:
		default:
			logrus.WithField("key", key).Debug("stream subscriber buffer full, update skipped")
		}
	}
}

// Forget drops the retained value for key, e.g. after the underlying row is
// hard-deleted.
func (h *Hub) Forget(key string) {
	h.mu.Lock()
	delete(h.last, key)
	h.mu.Unlock()
}
