// Package notifier fans out store events to presentation subscribers.
package notifier

import "sync"

// Kind distinguishes a state change from a user-facing alert.
type Kind int

// Event kinds.
const (
	// Changed means the store state moved; subscribers re-read a snapshot.
	Changed Kind = iota
	// Alert carries a message that must be shown to the user.
	Alert
)

// Level is the severity of an alert.
type Level string

// Alert levels.
const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Event is one broadcast item.
type Event struct {
	Kind    Kind
	Level   Level
	Message string
}

// Notifier broadcasts events to all subscribed listeners.
// Change pings are coalesced per listener while one is still pending.
// Alerts are queued until the listener reads them and are never dropped.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]*listener
}

// listener feeds one subscriber channel from its own queue.
type listener struct {
	out  chan Event
	wake chan struct{}
	done chan struct{}
	exit chan struct{}

	mu      sync.Mutex
	queue   []Event
	pending bool // a Changed event sits in queue
}

func newListener() *listener {
	l := &listener{
		out:  make(chan Event),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		exit: make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *listener) push(ev Event) {
	l.mu.Lock()
	if ev.Kind == Changed {
		if l.pending {
			l.mu.Unlock()
			return
		}
		l.pending = true
	}
	l.queue = append(l.queue, ev)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *listener) pop() (Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return Event{}, false
	}
	ev := l.queue[0]
	l.queue[0] = Event{}
	l.queue = l.queue[1:]
	if ev.Kind == Changed {
		l.pending = false
	}
	return ev, true
}

// run delivers queued events in order until stop.
func (l *listener) run() {
	defer close(l.exit)
	for {
		select {
		case <-l.wake:
		case <-l.done:
			return
		}
		for {
			ev, ok := l.pop()
			if !ok {
				break
			}
			select {
			case l.out <- ev:
			case <-l.done:
				return
			}
		}
	}
}

func (l *listener) stop() {
	close(l.done)
	<-l.exit
	close(l.out)
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]*listener),
	}
}

// Subscribe returns a channel that receives events.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan Event {
	l := newListener()
	n.mu.Lock()
	n.listeners[l.out] = l
	n.mu.Unlock()
	return l.out
}

// Unsubscribe removes a listener channel and closes it.
// Unsubscribing twice is a no-op.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	l, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		l.stop()
	}
}

// Len returns the number of active listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Changed pings every listener that the state moved.
func (n *Notifier) Changed() {
	n.Broadcast(Event{Kind: Changed})
}

// Info broadcasts an informational alert.
func (n *Notifier) Info(msg string) {
	n.Broadcast(Event{Kind: Alert, Level: LevelInfo, Message: msg})
}

// Error broadcasts an error alert.
func (n *Notifier) Error(msg string) {
	n.Broadcast(Event{Kind: Alert, Level: LevelError, Message: msg})
}

// Broadcast queues ev for all listeners without waiting on any of them.
// A nil Notifier drops everything.
func (n *Notifier) Broadcast(ev Event) {
	if n == nil {
		return
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, l := range n.listeners {
		l.push(ev)
	}
}
