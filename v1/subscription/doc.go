// Package subscription tracks active consumer registrations.
//
// A Subscription is created when a consumer is registered and cancelled on
// Dispose or Close. Dispose is best-effort: it flips Active to false and
// cancels the consumer in a background goroutine without waiting for the
// broker. Close performs the same transition and waits for the cancel. Both
// are no-ops once the subscription is inactive or its channel is closed.
//
// A Repository holds every subscription of a bus client. Add, Remove and
// GetAll are safe for concurrent use without locks; GetAll returns a
// snapshot, not a live view.
package subscription
