// Package notify is the in-process hub for user-facing notifications. The
// presentation layer subscribes and renders events as toasts; this package only
// fans them out.
package notify

import (
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// Severity classifies a notification for presentation.
type Severity string

const (
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
	Info    Severity = "info"
)

// Event is a single user-facing notification.
type Event struct {
	ID       uuid.UUID
	Severity Severity
	Message  string
	Time     time.Time
}

// Notifier fans events out to subscribers. Sends never block: a subscriber
// whose buffer is full loses the event (toasts are lossy).
type Notifier struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
	log  *zap.Logger
}

// New constructs a Notifier.
func New(log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{subs: make(map[chan Event]struct{}), log: log}
}

// Subscribe registers a new subscriber channel.
func (n *Notifier) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (n *Notifier) Unsubscribe(ch <-chan Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs {
		if sub == ch {
			delete(n.subs, sub)
			close(sub)
			return
		}
	}
}

// Publish emits an event to all current subscribers.
func (n *Notifier) Publish(sev Severity, msg string) {
	id, _ := uuid.NewV4()
	ev := Event{ID: id, Severity: sev, Message: msg, Time: time.Now()}

	n.log.Debug("notification",
		zap.String("severity", string(sev)),
		zap.String("message", msg),
	)

	n.mu.Lock()
	defer n.mu.Unlock()
	for sub := range n.subs {
		select {
		case sub <- ev:
		default:
		}
	}
}

func (n *Notifier) Success(msg string) { n.Publish(Success, msg) }
func (n *Notifier) Warning(msg string) { n.Publish(Warning, msg) }
func (n *Notifier) Error(msg string)   { n.Publish(Error, msg) }
func (n *Notifier) Info(msg string)    { n.Publish(Info, msg) }
