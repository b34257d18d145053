package testutil

import (
	"time"

	"github.com/leapstack-labs/leadsync/internal/notifier"
)

// quiet is how long Drain waits for the next event before it stops.
const quiet = 4 * WaitTick

// Drain reads events from ch until it stays silent for a few ticks.
func Drain(ch <-chan notifier.Event) []notifier.Event {
	var evs []notifier.Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return evs
			}
			evs = append(evs, ev)
		case <-time.After(quiet):
			return evs
		}
	}
}

// AlertMessages returns the messages of the alert events in evs.
func AlertMessages(evs []notifier.Event) []string {
	var msgs []string
	for _, ev := range evs {
		if ev.Kind == notifier.Alert {
			msgs = append(msgs, ev.Message)
		}
	}
	return msgs
}
