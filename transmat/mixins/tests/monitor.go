package tests

import (
	"github.com/polydawn/duffel/api"
)

/*
	Returns a Monitor wired to a collector goroutine, plus a func that
	waits for the operation to close the channel and then returns
	everything that was sent.
*/
func CollectingMonitor() (api.Monitor, func() []api.Event) {
	ch := make(chan api.Event)
	var events []api.Event
	done := make(chan struct{})
	go func() {
		for evt := range ch {
			events = append(events, evt)
		}
		close(done)
	}()
	return api.Monitor{Chan: ch}, func() []api.Event {
		<-done
		return events
	}
}

/*
	Filters a collected event slice down to its log events.
*/
func LogEvents(events []api.Event) []api.Event_Log {
	var logs []api.Event_Log
	for _, evt := range events {
		if evt.Log != nil {
			logs = append(logs, *evt.Log)
		}
	}
	return logs
}
