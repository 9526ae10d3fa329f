// Package mail builds and delivers the lifecycle notifications (email
// verification links, password reset codes).
//
// Delivery is fire-and-forget: workflows hand messages to the [Dispatcher]
// and move on. A failed delivery is logged, counted, and never turns into a
// workflow error.
package mail
