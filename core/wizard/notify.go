package wizard

import (
	"sync"
	"time"

	"github.com/trezcool/tutordesk/core/educator"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
)

// Notification is a toast for the educator.
// Secondary notifications come from follow-up work, after the primary outcome was reported.
type Notification struct {
	Seq       uint64            `json:"seq"`
	SessionID string            `json:"sessionId"`
	Kind      string            `json:"kind"`
	Level     Level             `json:"level"`
	Message   string            `json:"message"`
	Secondary bool              `json:"secondary,omitempty"`
	At        time.Time         `json:"at"`
	Owner     educator.Educator `json:"-"`
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// Fanout forwards notifications to several notifiers.
type Fanout []Notifier

func (f Fanout) Notify(n Notification) {
	for _, notifier := range f {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}

const outboxSize = 50

// outbox keeps the latest notifications of a session until they are read or acknowledged.
type outbox struct {
	mu    sync.Mutex
	seq   uint64
	items []Notification
}

// push numbers n and keeps it.
func (o *outbox) push(n Notification) Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seq++
	n.Seq = o.seq
	o.items = append(o.items, n)
	if len(o.items) > outboxSize {
		o.items = o.items[len(o.items)-outboxSize:]
	}
	return n
}

// ack drops the notification numbered seq, once it was delivered elsewhere.
func (o *outbox) ack(seq uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, n := range o.items {
		if n.Seq == seq {
			o.items = append(o.items[:i], o.items[i+1:]...)
			return
		}
	}
}

func (o *outbox) drain() []Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := o.items
	o.items = nil
	return items
}
