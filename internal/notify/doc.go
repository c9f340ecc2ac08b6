// Package notify shows short-lived status messages.
//
// A Notifier hands each message to a Sink, dismisses it after three seconds
// and forgets it 400 milliseconds later, once the sink has had time to fade it
// out. Message text comes from a small catalog in English and Thai.
package notify
