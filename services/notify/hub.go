package notifysvc

import (
	"sync"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/wizard"
)

const subscriberBuffer = 16

// Hub routes notifications to the live subscriptions of their owner.
type Hub struct {
	logger core.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan wizard.Notification // educator id -> subscriptions
}

var _ wizard.Notifier = (*Hub)(nil)

func NewHub(logger core.Logger) *Hub {
	return &Hub{logger: logger, subs: make(map[string]map[int]chan wizard.Notification)}
}

// Subscribe returns the notifications of an educator and the func that ends the subscription.
// unsubscribe is safe to call more than once.
func (h *Hub) Subscribe(educatorID string) (<-chan wizard.Notification, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan wizard.Notification, subscriberBuffer)
	if h.subs[educatorID] == nil {
		h.subs[educatorID] = make(map[int]chan wizard.Notification)
	}
	h.subs[educatorID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs[educatorID], id)
			if len(h.subs[educatorID]) == 0 {
				delete(h.subs, educatorID)
			}
			close(ch)
		})
	}
}

// Subscribers counts the live subscriptions of an educator.
func (h *Hub) Subscribers(educatorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[educatorID])
}

// Notify never blocks; slow subscribers miss notifications, which stay in the session outbox.
func (h *Hub) Notify(n wizard.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[n.Owner.ID] {
		select {
		case ch <- n:
		default:
			if h.logger != nil {
				h.logger.Warn("notification dropped: subscriber is full", map[string]interface{}{"session": n.SessionID})
			}
		}
	}
}
