package testutil

import "time"

// Polling bounds for require.Eventually in asynchronous tests.
const (
	WaitTimeout = 2 * time.Second
	WaitTick    = 5 * time.Millisecond
)
