// Package broadcast provides type-safe one-to-many message delivery and a small named-event
// bus built on top of it.
//
// MemoryBroadcaster fans a Message[T] out to every subscriber without blocking: a
// subscriber whose buffer is full misses that message but stays subscribed. Subscriptions
// end when their context is cancelled, when Close is called on them, or when the
// broadcaster closes.
//
// Bus publishes payload-free Event values identified by name. Receivers filter by name and
// re-query the state the event refers to.
//
// Basic usage:
//
//	bus := broadcast.NewBus()
//	defer bus.Close()
//
//	sub := bus.Subscribe(ctx, "security-update-status-changed")
//	defer sub.Close()
//
//	_ = bus.Publish(ctx, "security-update-status-changed")
//
//	for ev := range sub.Events() {
//		fmt.Println(ev.Name)
//	}
package broadcast
