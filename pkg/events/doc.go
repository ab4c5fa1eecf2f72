/*
Package events provides an in-memory event broker for tracewire's pub/sub
messaging.

The events package implements a lightweight event bus for broadcasting
connectivity changes to interested subscribers. Cable mutations and path
recomputations publish here after their transaction commits, so higher-level
caches (rendered topology views, exports) can invalidate without the mutation
path knowing about them.

# Architecture

Non-blocking pub/sub with buffered channels:

	Publisher -> Event Channel (buffer: 100)
	      |
	Broadcast Loop
	      |
	Subscriber Channels (buffer: 50 each, drop on full)

A slow subscriber never blocks a cable mutation: when a subscriber's buffer
is full the event is dropped for that subscriber only. Consumers that need a
complete picture should re-read from storage rather than relying on event
completeness.

# Event Types

Cable lifecycle: cable.created, cable.updated, cable.deleted.
Path lifecycle: path.updated, path.deleted, plus path.split and path.loop
informational states surfaced by the tracer.

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s\n", event.Type, event.Message)
		}
	}()
*/
package events
